package httpadapter

import (
	"context"
	"io"
	"log/slog"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/commands"
	"ccdepot/contexts/content-licensing/creative-commons-service/application/queries"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	httptransport "ccdepot/contexts/content-licensing/creative-commons-service/transport/http"
)

type Handler struct {
	IsEnabled           queries.IsEnabledUseCase
	HasLicense          queries.HasLicenseUseCase
	GetItem             queries.GetItemUseCase
	ListItems           queries.ListItemsUseCase
	GetBitstream        queries.GetLicenseBitstreamUseCase
	OpenBitstream       queries.OpenLicenseBitstreamUseCase
	GetContent          queries.GetLicenseContentUseCase
	GetCCField          queries.GetCCFieldUseCase
	FetchLicenseRDF     queries.FetchLicenseRDFUseCase
	SetLicenseRDF       commands.SetLicenseRDFUseCase
	SetLicense          commands.SetLicenseUseCase
	RemoveLicense       commands.RemoveLicenseUseCase
	RemoveLicenseFields commands.RemoveLicenseFieldsUseCase
	ApplyLicense        commands.ApplyLicenseUseCase
	Logger              *slog.Logger
}

// ListItemsHandler godoc
// @Summary List repository items
// @Description Returns items with cursor pagination, optionally only licensed ones.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param collection_id query string false "Collection filter"
// @Param licensed_only query bool false "Only items carrying a CC license"
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ListItemsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items [get]
func (h Handler) ListItemsHandler(ctx context.Context, userID string, req httptransport.ListItemsRequest) (httptransport.ListItemsResponse, error) {
	result, err := h.ListItems.Execute(ctx, queries.ListItemsQuery{
		ActorID:      userID,
		CollectionID: req.CollectionID,
		LicensedOnly: req.LicensedOnly,
		Cursor:       req.Cursor,
		Limit:        req.Limit,
	})
	if err != nil {
		return httptransport.ListItemsResponse{}, err
	}
	items := make([]httptransport.ItemDTO, 0, len(result.Items))
	for _, item := range result.Items {
		dto := mapItem(item, false)
		dto.HasLicense = item.HasLicense()
		items = append(items, dto)
	}
	return httptransport.ListItemsResponse{Items: items, NextCursor: result.NextCursor}, nil
}

// GetItemHandler godoc
// @Summary Get item
// @Description Returns one item with metadata, bundles and license summary.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.GetItemResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id} [get]
func (h Handler) GetItemHandler(ctx context.Context, userID string, itemID string) (httptransport.GetItemResponse, error) {
	result, err := h.GetItem.Execute(ctx, queries.GetItemQuery{ActorID: userID, ItemID: itemID})
	if err != nil {
		return httptransport.GetItemResponse{}, err
	}
	dto := mapItem(result.Item, true)
	dto.HasLicense = result.HasLicense
	dto.LicenseURI = result.LicenseURI
	return httptransport.GetItemResponse{Item: dto}, nil
}

// GetLicenseStatusHandler godoc
// @Summary Get item license status
// @Description Reports whether licensing is enabled, whether the item has a CC license, and its license bitstreams.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.LicenseStatusResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license [get]
func (h Handler) GetLicenseStatusHandler(ctx context.Context, userID string, itemID string) (httptransport.LicenseStatusResponse, error) {
	// URL authorizes item.read before anything reveals whether the item exists.
	licenseURL, err := h.GetContent.URL(ctx, queries.GetLicenseContentQuery{ActorID: userID, ItemID: itemID})
	if err != nil {
		return httptransport.LicenseStatusResponse{}, err
	}
	hasLicense, err := h.HasLicense.Execute(ctx, queries.HasLicenseQuery{ItemID: itemID})
	if err != nil {
		return httptransport.LicenseStatusResponse{}, err
	}
	resp := httptransport.LicenseStatusResponse{
		ItemID:     itemID,
		Enabled:    h.IsEnabled.Execute(),
		HasLicense: hasLicense,
		LicenseURL: licenseURL,
	}

	rdf, err := h.GetBitstream.RDF(ctx, itemID)
	if err != nil {
		return httptransport.LicenseStatusResponse{}, err
	}
	if rdf.Found {
		dto := mapBitstream(rdf.Bitstream)
		resp.RDF = &dto
	}
	text, err := h.GetBitstream.Text(ctx, itemID)
	if err != nil {
		return httptransport.LicenseStatusResponse{}, err
	}
	if text.Found {
		dto := mapBitstream(text.Bitstream)
		resp.Text = &dto
	}
	return resp, nil
}

// GetLicenseRDFHandler godoc
// @Summary Get license RDF
// @Description Returns the stored license_rdf content, empty when the item has none.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.LicenseRDFResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license/rdf [get]
func (h Handler) GetLicenseRDFHandler(ctx context.Context, userID string, itemID string) (httptransport.LicenseRDFResponse, error) {
	content, err := h.GetContent.RDF(ctx, queries.GetLicenseContentQuery{ActorID: userID, ItemID: itemID})
	if err != nil {
		return httptransport.LicenseRDFResponse{}, err
	}
	return httptransport.LicenseRDFResponse{ItemID: itemID, LicenseRDF: content}, nil
}

// OpenLicenseBitstreamHandler streams one named CC bitstream. Callers must close the reader.
// @Summary Download license bitstream
// @Tags creative-commons
// @Produce octet-stream
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Param name path string true "license_rdf, license_text or license_url"
// @Success 200 {file} file
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license/bitstreams/{name} [get]
func (h Handler) OpenLicenseBitstreamHandler(ctx context.Context, userID string, itemID string, name string) (httptransport.BitstreamDTO, io.ReadCloser, error) {
	bitstream, reader, err := h.OpenBitstream.Execute(ctx, queries.OpenLicenseBitstreamQuery{
		ActorID: userID,
		ItemID:  itemID,
		Name:    name,
	})
	if err != nil {
		return httptransport.BitstreamDTO{}, nil, err
	}
	return mapBitstream(bitstream), reader, nil
}

// SetLicenseRDFHandler godoc
// @Summary Set license from RDF
// @Description Replaces the item's CC-LICENSE bundle with a license_rdf bitstream.
// @Tags creative-commons
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Param request body httptransport.SetLicenseRDFRequest true "RDF payload"
// @Success 200 {object} httptransport.SetLicenseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license/rdf [put]
func (h Handler) SetLicenseRDFHandler(ctx context.Context, userID string, itemID string, req httptransport.SetLicenseRDFRequest) (httptransport.SetLicenseResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("set license rdf request received",
		"event", "http_set_license_rdf_received",
		"module", application.ModuleName,
		"layer", "transport",
		"item_id", itemID,
	)
	result, err := h.SetLicenseRDF.Execute(ctx, commands.SetLicenseRDFCommand{
		ActorID:    userID,
		ItemID:     itemID,
		LicenseRDF: req.LicenseRDF,
	})
	if err != nil {
		return httptransport.SetLicenseResponse{}, err
	}
	return mapSetLicense(itemID, result), nil
}

// SetLicenseHandler godoc
// @Summary Upload license content
// @Description Stores the request body as the item license; the Content-Type picks license_rdf or license_text.
// @Tags creative-commons
// @Accept */*
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.SetLicenseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license [put]
func (h Handler) SetLicenseHandler(ctx context.Context, userID string, itemID string, content io.Reader, mimeType string) (httptransport.SetLicenseResponse, error) {
	result, err := h.SetLicense.Execute(ctx, commands.SetLicenseCommand{
		ActorID:  userID,
		ItemID:   itemID,
		Content:  content,
		MimeType: mimeType,
	})
	if err != nil {
		return httptransport.SetLicenseResponse{}, err
	}
	return mapSetLicense(itemID, result), nil
}

// RemoveLicenseHandler godoc
// @Summary Remove license bitstreams
// @Description Deletes the CC-LICENSE bundle. Succeeds when the item has none.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.RemoveLicenseResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license [delete]
func (h Handler) RemoveLicenseHandler(ctx context.Context, userID string, itemID string) (httptransport.RemoveLicenseResponse, error) {
	result, err := h.RemoveLicense.Execute(ctx, commands.RemoveLicenseCommand{ActorID: userID, ItemID: itemID})
	if err != nil {
		return httptransport.RemoveLicenseResponse{}, err
	}
	return httptransport.RemoveLicenseResponse{ItemID: itemID, RemovedBitstreams: result.RemovedBitstreams}, nil
}

// ApplyLicenseHandler godoc
// @Summary Apply a license
// @Description Writes the license URI and name fields and, when configured, stores the RDF extracted from the document.
// @Tags creative-commons
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Param request body httptransport.ApplyLicenseRequest true "License payload"
// @Success 200 {object} httptransport.ApplyLicenseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license/fields [post]
func (h Handler) ApplyLicenseHandler(ctx context.Context, userID string, itemID string, req httptransport.ApplyLicenseRequest) (httptransport.ApplyLicenseResponse, error) {
	uriField, nameField, err := h.licenseFields(ctx)
	if err != nil {
		return httptransport.ApplyLicenseResponse{}, err
	}
	result, err := h.ApplyLicense.Execute(ctx, commands.ApplyLicenseCommand{
		ActorID:     userID,
		ItemID:      itemID,
		LicenseURI:  req.LicenseURI,
		LicenseName: req.LicenseName,
		Document:    []byte(req.Document),
		URIField:    uriField,
		NameField:   nameField,
	})
	if err != nil {
		return httptransport.ApplyLicenseResponse{}, err
	}
	resp := httptransport.ApplyLicenseResponse{ItemID: itemID, LicenseURI: result.LicenseURI}
	if result.Bitstream != nil {
		dto := mapBitstream(*result.Bitstream)
		resp.Bitstream = &dto
	}
	return resp, nil
}

// RemoveLicenseFieldsHandler godoc
// @Summary Remove license fields
// @Description Clears the license URI field, the matching name when configured, and the license bitstreams when configured.
// @Tags creative-commons
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.RemoveLicenseFieldsResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/items/{item_id}/license/fields [delete]
func (h Handler) RemoveLicenseFieldsHandler(ctx context.Context, userID string, itemID string) (httptransport.RemoveLicenseFieldsResponse, error) {
	uriField, nameField, err := h.licenseFields(ctx)
	if err != nil {
		return httptransport.RemoveLicenseFieldsResponse{}, err
	}
	result, err := h.RemoveLicenseFields.Execute(ctx, commands.RemoveLicenseFieldsCommand{
		ActorID:   userID,
		ItemID:    itemID,
		URIField:  uriField,
		NameField: nameField,
	})
	if err != nil {
		return httptransport.RemoveLicenseFieldsResponse{}, err
	}
	return httptransport.RemoveLicenseFieldsResponse{
		ItemID:            itemID,
		LicenseURI:        result.LicenseURI,
		NameRemoved:       result.NameRemoved,
		RemovedBitstreams: result.RemovedBitstreams,
	}, nil
}

// GetLicenseFieldHandler godoc
// @Summary Resolve a license field
// @Description Maps uri, name or permission to the configured metadata field.
// @Tags creative-commons
// @Produce json
// @Param field_id path string true "uri, name or permission"
// @Success 200 {object} httptransport.LicenseFieldResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/license-fields/{field_id} [get]
func (h Handler) GetLicenseFieldHandler(ctx context.Context, fieldID string) (httptransport.LicenseFieldResponse, error) {
	field, err := h.GetCCField.Execute(ctx, fieldID)
	if err != nil {
		return httptransport.LicenseFieldResponse{}, err
	}
	return httptransport.LicenseFieldResponse{FieldID: field.FieldID, Field: field.Field.String()}, nil
}

// FetchLicenseRDFHandler godoc
// @Summary Extract license RDF
// @Description Returns the rdf:RDF element of a license document such as a CC web-service response.
// @Tags creative-commons
// @Accept json
// @Produce json
// @Param request body httptransport.FetchLicenseRDFRequest true "License document"
// @Success 200 {object} httptransport.FetchLicenseRDFResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/license-rdf/extract [post]
func (h Handler) FetchLicenseRDFHandler(_ context.Context, req httptransport.FetchLicenseRDFRequest) (httptransport.FetchLicenseRDFResponse, error) {
	rdf, err := h.FetchLicenseRDF.ExecuteRaw([]byte(req.Document))
	if err != nil {
		return httptransport.FetchLicenseRDFResponse{}, err
	}
	return httptransport.FetchLicenseRDFResponse{LicenseRDF: rdf}, nil
}

func (h Handler) licenseFields(ctx context.Context) (entities.LicenseMetadataValue, entities.LicenseMetadataValue, error) {
	uriField, err := h.GetCCField.Execute(ctx, entities.LicenseFieldURI)
	if err != nil {
		return entities.LicenseMetadataValue{}, entities.LicenseMetadataValue{}, err
	}
	nameField, err := h.GetCCField.Execute(ctx, entities.LicenseFieldName)
	if err != nil {
		return entities.LicenseMetadataValue{}, entities.LicenseMetadataValue{}, err
	}
	return uriField, nameField, nil
}

func mapSetLicense(itemID string, result commands.SetLicenseResult) httptransport.SetLicenseResponse {
	return httptransport.SetLicenseResponse{
		ItemID:    itemID,
		Bitstream: mapBitstream(result.Bitstream),
		Replaced:  result.Replaced,
	}
}

func mapItem(item entities.Item, detailed bool) httptransport.ItemDTO {
	dto := httptransport.ItemDTO{
		ItemID:       item.ItemID,
		Handle:       item.Handle,
		Name:         item.Name,
		CollectionID: item.CollectionID,
		Withdrawn:    item.Withdrawn,
		UpdatedAt:    formatTime(item.UpdatedAt),
	}
	if !detailed {
		return dto
	}
	for _, value := range item.Metadata {
		field := entities.FieldRef{Schema: value.Schema, Element: value.Element, Qualifier: value.Qualifier}
		dto.Metadata = append(dto.Metadata, httptransport.MetadataValueDTO{
			Field:    field.String(),
			Value:    value.Value,
			Language: value.Language,
			Place:    value.Place,
		})
	}
	for _, bundle := range item.Bundles {
		bundleDTO := httptransport.BundleDTO{
			BundleID:   bundle.BundleID,
			Name:       bundle.Name,
			Bitstreams: make([]httptransport.BitstreamDTO, 0, len(bundle.Bitstreams)),
		}
		for _, bitstream := range bundle.Bitstreams {
			bundleDTO.Bitstreams = append(bundleDTO.Bitstreams, mapBitstream(bitstream))
		}
		dto.Bundles = append(dto.Bundles, bundleDTO)
	}
	return dto
}

func mapBitstream(bitstream entities.Bitstream) httptransport.BitstreamDTO {
	return httptransport.BitstreamDTO{
		BitstreamID: bitstream.BitstreamID,
		Name:        bitstream.Name,
		Source:      bitstream.Source,
		Format:      bitstream.Format,
		MimeType:    bitstream.MimeType,
		SizeBytes:   bitstream.SizeBytes,
		Checksum:    bitstream.Checksum,
		CreatedAt:   formatTime(bitstream.CreatedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
