package queries

import (
	"context"
	"log/slog"
	"strings"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type GetItemQuery struct {
	ActorID string
	ItemID  string
}

type GetItemResult struct {
	Item       entities.Item
	LicenseURI string
	HasLicense bool
}

type GetItemUseCase struct {
	Items      ports.ItemRepository
	Authorizer ports.Authorizer
	Fields     *FieldRegistry
	Logger     *slog.Logger
}

func (u GetItemUseCase) Execute(ctx context.Context, query GetItemQuery) (GetItemResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.ItemID) == "" {
		return GetItemResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, u.Authorizer, query.ActorID, ports.PermissionItemRead, query.ItemID); err != nil {
		return GetItemResult{}, err
	}

	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		logger.Error("get item failed",
			"event", "cc_get_item_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", query.ItemID,
			"error", err.Error(),
		)
		return GetItemResult{}, application.PersistenceFailure(err)
	}

	result := GetItemResult{Item: item, HasLicense: item.HasLicense()}
	if u.Fields != nil {
		uriField, err := u.Fields.Field(ctx, entities.LicenseFieldURI)
		if err != nil {
			return GetItemResult{}, err
		}
		result.LicenseURI = uriField.ItemValue(item)
	}
	return result, nil
}

type ListItemsQuery struct {
	ActorID      string
	CollectionID string
	LicensedOnly bool
	Cursor       string
	Limit        int
}

type ListItemsResult struct {
	Items      []entities.Item
	NextCursor string
}

// ListItemsUseCase pages through the catalog, leaving out items the actor
// cannot read. Filtered pages may therefore hold fewer than limit items.
type ListItemsUseCase struct {
	Items      ports.ItemRepository
	Authorizer ports.Authorizer
	Logger     *slog.Logger
}

func (u ListItemsUseCase) Execute(ctx context.Context, query ListItemsQuery) (ListItemsResult, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		return ListItemsResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if u.Authorizer != nil && strings.TrimSpace(query.ActorID) == "" {
		return ListItemsResult{}, domainerrors.ErrForbidden
	}
	page, next, err := u.Items.ListItems(ctx, ports.ItemListFilter{
		CollectionID: query.CollectionID,
		LicensedOnly: query.LicensedOnly,
		Cursor:       query.Cursor,
		Limit:        limit,
	})
	if err != nil {
		application.ResolveLogger(u.Logger).Error("list items failed",
			"event", "cc_list_items_failed",
			"module", application.ModuleName,
			"layer", "application",
			"error", err.Error(),
		)
		return ListItemsResult{}, application.PersistenceFailure(err)
	}

	items := make([]entities.Item, 0, len(page))
	for _, item := range page {
		if err := application.Authorize(ctx, u.Authorizer, query.ActorID, ports.PermissionItemRead, item.ItemID); err != nil {
			continue
		}
		items = append(items, item)
	}
	return ListItemsResult{Items: items, NextCursor: next}, nil
}
