package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	ccmemory "ccdepot/contexts/content-licensing/creative-commons-service/adapters/memory"
	ccentities "ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	ccerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	authorization "ccdepot/contexts/identity-access/authorization-service"
	authzqueries "ccdepot/contexts/identity-access/authorization-service/application/queries"
	authzentities "ccdepot/contexts/identity-access/authorization-service/domain/entities"
	scripterrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	scriptports "ccdepot/contexts/internal-ops/script-runner-service/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingChecker struct{}

func (failingChecker) Execute(context.Context, authzqueries.CheckPermissionQuery) (authzentities.PermissionDecision, error) {
	return authzentities.PermissionDecision{}, errors.New("authz unavailable")
}

func TestAuthorizersFollowRoleAssignments(t *testing.T) {
	module := authorization.NewInMemoryModule(map[string]string{
		"admin-1":  authzentities.RoleAdmin,
		"reader-1": authzentities.RoleReader,
	}, nil, nil)
	ctx := context.Background()

	licenses := licenseAuthorizer{checker: module.CheckPermission}
	require.NoError(t, licenses.Authorize(ctx, "reader-1", "item.read", "item-1"))
	require.ErrorIs(t, licenses.Authorize(ctx, "reader-1", "item.write", "item-1"), ccerrors.ErrForbidden)
	require.ErrorIs(t, licenses.Authorize(ctx, "", "item.read", "item-1"), ccerrors.ErrForbidden)

	scripts := scriptAuthorizer{checker: module.CheckPermission}
	require.NoError(t, scripts.Authorize(ctx, "admin-1", "script.run"))
	require.NoError(t, scripts.Authorize(ctx, "reader-1", "script.read"))
	require.ErrorIs(t, scripts.Authorize(ctx, "reader-1", "script.run"), scripterrors.ErrForbidden)
}

func TestAuthorizerSurfacesLookupErrors(t *testing.T) {
	err := licenseAuthorizer{checker: failingChecker{}}.Authorize(context.Background(), "u", "item.read", "i")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ccerrors.ErrForbidden)
}

func catalogFixture() *ccmemory.Store {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return ccmemory.NewStore([]ccentities.Item{
		{
			ItemID:       "item-1",
			CollectionID: "col-1",
			Metadata: []ccentities.MetadataValue{
				{Schema: "dc", Element: "title", Value: "Thesis"},
				{Schema: "dc", Element: "subject", Value: "Physik", Language: "de"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{ItemID: "item-2", CollectionID: "col-2", CreatedAt: now, UpdatedAt: now},
	}, nil)
}

func TestCatalogBridgeListsItems(t *testing.T) {
	bridge := newCatalogBridge(catalogFixture())
	ctx := context.Background()

	all, err := bridge.ListItems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "item-1", all[0].ItemID)
	assert.Equal(t, []scriptports.CatalogValue{
		{Schema: "dc", Element: "title", Value: "Thesis"},
		{Schema: "dc", Element: "subject", Language: "de", Value: "Physik"},
	}, all[0].Metadata)

	some, err := bridge.ListItems(ctx, []string{"item-2", "missing", "item-2"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "col-2", some[0].CollectionID)
}

func TestCatalogBridgeReplacesMetadata(t *testing.T) {
	store := catalogFixture()
	bridge := newCatalogBridge(store)
	ctx := context.Background()

	err := bridge.ReplaceMetadata(ctx, "item-1", []scriptports.FieldUpdate{{
		Field:     "dc.subject",
		Values:    []string{"Physik", "Physics"},
		Languages: []string{"de", "en"},
	}})
	require.NoError(t, err)

	item, err := store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	subjects := item.Values(ccentities.FieldRef{Schema: "dc", Element: "subject"})
	require.Len(t, subjects, 2)
	assert.Equal(t, "en", subjects[1].Language)
	assert.Equal(t, "Physics", subjects[1].Value)

	err = bridge.ReplaceMetadata(ctx, "item-1", []scriptports.FieldUpdate{{Field: "title", Values: []string{"x"}}})
	require.ErrorIs(t, err, scripterrors.ErrInvalidRequest)

	err = bridge.ReplaceMetadata(ctx, "missing", nil)
	require.ErrorIs(t, err, ccerrors.ErrItemNotFound)
}
