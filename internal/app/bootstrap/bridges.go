package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	ccentities "ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	ccerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	authzqueries "ccdepot/contexts/identity-access/authorization-service/application/queries"
	authzentities "ccdepot/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	scripterrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	scriptports "ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// Bridges between bounded contexts live here so contexts never import each other.

type permissionChecker interface {
	Execute(ctx context.Context, query authzqueries.CheckPermissionQuery) (authzentities.PermissionDecision, error)
}

// licenseAuthorizer answers the licensing Authorizer port from role assignments.
type licenseAuthorizer struct {
	checker permissionChecker
}

func (a licenseAuthorizer) Authorize(ctx context.Context, actorID string, permission string, itemID string) error {
	allowed, err := checkPermission(ctx, a.checker, actorID, permission, "item", itemID)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s lacks %s", ccerrors.ErrForbidden, actorID, permission)
	}
	return nil
}

// scriptAuthorizer answers the script runner Authorizer port.
type scriptAuthorizer struct {
	checker permissionChecker
}

func (a scriptAuthorizer) Authorize(ctx context.Context, actorID string, permission string) error {
	allowed, err := checkPermission(ctx, a.checker, actorID, permission, "script", "")
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s lacks %s", scripterrors.ErrForbidden, actorID, permission)
	}
	return nil
}

// checkPermission treats a malformed subject as a denial rather than a failure.
func checkPermission(
	ctx context.Context,
	checker permissionChecker,
	actorID string,
	permission string,
	resourceType string,
	resourceID string,
) (bool, error) {
	decision, err := checker.Execute(ctx, authzqueries.CheckPermissionQuery{
		UserID:       actorID,
		Permission:   permission,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if errors.Is(err, authzerrors.ErrInvalidUserID) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// itemSource is the part of the licensing item stores that batch scripts read
// and write. Both the memory store and the Postgres repository satisfy it.
type itemSource interface {
	GetItem(ctx context.Context, itemID string) (ccentities.Item, error)
	ListAllItems(ctx context.Context, itemIDs []string) ([]ccentities.Item, error)
	ReplaceFields(ctx context.Context, itemID string, changes []ccentities.FieldChange, updatedAt time.Time) error
}

// catalogBridge exposes licensing items as the script runner ItemCatalog.
type catalogBridge struct {
	items itemSource
	now   func() time.Time
}

func newCatalogBridge(items itemSource) catalogBridge {
	return catalogBridge{items: items, now: func() time.Time { return time.Now().UTC() }}
}

// ListItems returns the requested items, skipping unknown ids so the caller
// can report them. An empty id list returns every item.
func (b catalogBridge) ListItems(ctx context.Context, itemIDs []string) ([]scriptports.CatalogItem, error) {
	var items []ccentities.Item
	if len(itemIDs) == 0 {
		all, err := b.items.ListAllItems(ctx, nil)
		if err != nil {
			return nil, err
		}
		items = all
	} else {
		seen := make(map[string]bool, len(itemIDs))
		for _, itemID := range itemIDs {
			if seen[itemID] {
				continue
			}
			seen[itemID] = true
			item, err := b.items.GetItem(ctx, itemID)
			if errors.Is(err, ccerrors.ErrItemNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	out := make([]scriptports.CatalogItem, 0, len(items))
	for _, item := range items {
		values := make([]scriptports.CatalogValue, 0, len(item.Metadata))
		for _, value := range item.Metadata {
			values = append(values, scriptports.CatalogValue{
				Schema:    value.Schema,
				Element:   value.Element,
				Qualifier: value.Qualifier,
				Language:  value.Language,
				Value:     value.Value,
			})
		}
		out = append(out, scriptports.CatalogItem{
			ItemID:       item.ItemID,
			CollectionID: item.CollectionID,
			Metadata:     values,
		})
	}
	return out, nil
}

func (b catalogBridge) ReplaceMetadata(ctx context.Context, itemID string, updates []scriptports.FieldUpdate) error {
	changes := make([]ccentities.FieldChange, 0, len(updates))
	for _, update := range updates {
		ref, err := ccentities.ParseFieldRef(update.Field)
		if err != nil {
			return fmt.Errorf("%w: field %q: %v", scripterrors.ErrInvalidRequest, update.Field, err)
		}
		changes = append(changes, ccentities.FieldChange{
			Field:     ref,
			Values:    update.Values,
			Languages: update.Languages,
		})
	}
	return b.items.ReplaceFields(ctx, itemID, changes, b.now())
}
