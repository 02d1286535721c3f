package queries

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type GetLicenseContentQuery struct {
	ActorID string
	ItemID  string
}

// GetLicenseContentUseCase reads a license bitstream as a string. Missing
// bitstreams yield "" so callers can treat "no license" uniformly.
type GetLicenseContentUseCase struct {
	Items      ports.ItemRepository
	Bitstreams ports.BitstreamStore
	Authorizer ports.Authorizer
	Fields     *FieldRegistry
	Logger     *slog.Logger
}

// RDF returns the license_rdf content.
func (u GetLicenseContentUseCase) RDF(ctx context.Context, query GetLicenseContentQuery) (string, error) {
	return u.read(ctx, query, entities.BitstreamNameLicenseRDF)
}

// URL returns the license URI recorded in the configured metadata field, or
// the content of the legacy license_url bitstream when the field is empty.
func (u GetLicenseContentUseCase) URL(ctx context.Context, query GetLicenseContentQuery) (string, error) {
	if u.Fields == nil {
		return u.read(ctx, query, entities.BitstreamNameLicenseURL)
	}
	if strings.TrimSpace(query.ItemID) == "" {
		return "", domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, u.Authorizer, query.ActorID, ports.PermissionItemRead, query.ItemID); err != nil {
		return "", err
	}
	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		return "", application.PersistenceFailure(err)
	}
	uriField, err := u.Fields.Field(ctx, entities.LicenseFieldURI)
	if err != nil {
		return "", err
	}
	if uri := uriField.ItemValue(item); uri != "" {
		return uri, nil
	}
	return u.read(ctx, query, entities.BitstreamNameLicenseURL)
}

func (u GetLicenseContentUseCase) read(ctx context.Context, query GetLicenseContentQuery, name string) (string, error) {
	opener := OpenLicenseBitstreamUseCase{
		Items:      u.Items,
		Bitstreams: u.Bitstreams,
		Authorizer: u.Authorizer,
		Logger:     u.Logger,
	}
	_, reader, err := opener.Execute(ctx, OpenLicenseBitstreamQuery{
		ActorID: query.ActorID,
		ItemID:  query.ItemID,
		Name:    name,
	})
	if errors.Is(err, domainerrors.ErrBitstreamNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("license bitstream read failed",
			"event", "cc_license_bitstream_read_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", query.ItemID,
			"bitstream_name", name,
			"error", err.Error(),
		)
		return "", application.IOFailure(err)
	}
	return string(content), nil
}
