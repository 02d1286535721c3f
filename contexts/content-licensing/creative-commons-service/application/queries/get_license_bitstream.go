package queries

import (
	"context"
	"io"
	"log/slog"
	"strings"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type GetLicenseBitstreamQuery struct {
	ItemID string
	Name   string
}

type GetLicenseBitstreamResult struct {
	Bitstream entities.Bitstream
	Found     bool
}

// GetLicenseBitstreamUseCase resolves license bitstream metadata. A missing
// bitstream is not an error: Found is false.
type GetLicenseBitstreamUseCase struct {
	Items  ports.ItemRepository
	Logger *slog.Logger
}

func (u GetLicenseBitstreamUseCase) Execute(ctx context.Context, query GetLicenseBitstreamQuery) (GetLicenseBitstreamResult, error) {
	if strings.TrimSpace(query.ItemID) == "" || strings.TrimSpace(query.Name) == "" {
		return GetLicenseBitstreamResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		return GetLicenseBitstreamResult{}, application.PersistenceFailure(err)
	}
	bitstream, found := item.LicenseBitstream(query.Name)
	return GetLicenseBitstreamResult{Bitstream: bitstream, Found: found}, nil
}

// RDF returns the license_rdf bitstream.
func (u GetLicenseBitstreamUseCase) RDF(ctx context.Context, itemID string) (GetLicenseBitstreamResult, error) {
	return u.Execute(ctx, GetLicenseBitstreamQuery{ItemID: itemID, Name: entities.BitstreamNameLicenseRDF})
}

// Text returns the license_text bitstream.
//
// Deprecated: new licenses are stored as RDF only; text bitstreams remain
// readable for items ingested with a plain-text license.
func (u GetLicenseBitstreamUseCase) Text(ctx context.Context, itemID string) (GetLicenseBitstreamResult, error) {
	return u.Execute(ctx, GetLicenseBitstreamQuery{ItemID: itemID, Name: entities.BitstreamNameLicenseText})
}

type OpenLicenseBitstreamQuery struct {
	ActorID string
	ItemID  string
	Name    string
}

// OpenLicenseBitstreamUseCase streams license bytes to readers with item.read.
type OpenLicenseBitstreamUseCase struct {
	Items      ports.ItemRepository
	Bitstreams ports.BitstreamStore
	Authorizer ports.Authorizer
	Logger     *slog.Logger
}

// Execute returns the bitstream and an open reader the caller must close.
func (u OpenLicenseBitstreamUseCase) Execute(ctx context.Context, query OpenLicenseBitstreamQuery) (entities.Bitstream, io.ReadCloser, error) {
	if strings.TrimSpace(query.ItemID) == "" || strings.TrimSpace(query.Name) == "" {
		return entities.Bitstream{}, nil, domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, u.Authorizer, query.ActorID, ports.PermissionItemRead, query.ItemID); err != nil {
		return entities.Bitstream{}, nil, err
	}
	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		return entities.Bitstream{}, nil, application.PersistenceFailure(err)
	}
	bitstream, found := item.LicenseBitstream(query.Name)
	if !found {
		return entities.Bitstream{}, nil, domainerrors.ErrBitstreamNotFound
	}
	reader, err := u.Bitstreams.Open(ctx, bitstream.StorageKey)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("license bitstream open failed",
			"event", "cc_license_bitstream_open_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", query.ItemID,
			"bitstream_id", bitstream.BitstreamID,
			"error", err.Error(),
		)
		return entities.Bitstream{}, nil, application.IOFailure(err)
	}
	return bitstream, reader, nil
}
