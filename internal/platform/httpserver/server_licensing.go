package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	ccerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	cchttp "ccdepot/contexts/content-licensing/creative-commons-service/transport/http"
)

// maxLicenseUpload bounds license bodies accepted by PUT /license.
const maxLicenseUpload = 8 << 20

func (s *Server) registerLicensingRoutes() {
	s.mux.HandleFunc("GET /v1/items", s.handleListItems)
	s.mux.HandleFunc("GET /v1/items/{item_id}", s.handleGetItem)
	s.mux.HandleFunc("GET /v1/items/{item_id}/license", s.handleGetLicenseStatus)
	s.mux.HandleFunc("PUT /v1/items/{item_id}/license", s.handleSetLicense)
	s.mux.HandleFunc("DELETE /v1/items/{item_id}/license", s.handleRemoveLicense)
	s.mux.HandleFunc("GET /v1/items/{item_id}/license/rdf", s.handleGetLicenseRDF)
	s.mux.HandleFunc("PUT /v1/items/{item_id}/license/rdf", s.handleSetLicenseRDF)
	s.mux.HandleFunc("GET /v1/items/{item_id}/license/bitstreams/{name}", s.handleOpenLicenseBitstream)
	s.mux.HandleFunc("POST /v1/items/{item_id}/license/fields", s.handleApplyLicense)
	s.mux.HandleFunc("DELETE /v1/items/{item_id}/license/fields", s.handleRemoveLicenseFields)
	s.mux.HandleFunc("GET /v1/license-fields/{field_id}", s.handleGetLicenseField)
	s.mux.HandleFunc("POST /v1/license-rdf/extract", s.handleFetchLicenseRDF)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	req := cchttp.ListItemsRequest{
		CollectionID: query.Get("collection_id"),
		Cursor:       query.Get("cursor"),
		Limit:        limit,
	}
	if raw := query.Get("licensed_only"); raw != "" {
		licensedOnly, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", "licensed_only must be a boolean")
			return
		}
		req.LicensedOnly = licensedOnly
	}

	resp, err := s.licensing.Handler.ListItemsHandler(r.Context(), userID, req)
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.licensing.Handler.GetItemHandler(r.Context(), userID, r.PathValue("item_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLicenseStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.licensing.Handler.GetLicenseStatusHandler(r.Context(), userID, r.PathValue("item_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetLicense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	mimeType := r.Header.Get("Content-Type")
	if index := strings.Index(mimeType, ";"); index >= 0 {
		mimeType = mimeType[:index]
	}
	body := http.MaxBytesReader(w, r.Body, maxLicenseUpload)
	resp, err := s.licensing.Handler.SetLicenseHandler(r.Context(), userID, r.PathValue("item_id"), body, strings.TrimSpace(mimeType))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetLicenseRDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req cchttp.SetLicenseRDFRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.licensing.Handler.SetLicenseRDFHandler(r.Context(), userID, r.PathValue("item_id"), req)
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveLicense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.licensing.Handler.RemoveLicenseHandler(r.Context(), userID, r.PathValue("item_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLicenseRDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.licensing.Handler.GetLicenseRDFHandler(r.Context(), userID, r.PathValue("item_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenLicenseBitstream(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	bitstream, reader, err := s.licensing.Handler.OpenLicenseBitstreamHandler(
		r.Context(),
		userID,
		r.PathValue("item_id"),
		r.PathValue("name"),
	)
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	defer reader.Close()

	contentType := bitstream.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(bitstream.SizeBytes, 10))
	w.Header().Set("ETag", strconv.Quote(bitstream.Checksum))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		s.logInternalError(r, err)
	}
}

func (s *Server) handleApplyLicense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req cchttp.ApplyLicenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.licensing.Handler.ApplyLicenseHandler(r.Context(), userID, r.PathValue("item_id"), req)
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveLicenseFields(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.licensing.Handler.RemoveLicenseFieldsHandler(r.Context(), userID, r.PathValue("item_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLicenseField(w http.ResponseWriter, r *http.Request) {
	resp, err := s.licensing.Handler.GetLicenseFieldHandler(r.Context(), r.PathValue("field_id"))
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFetchLicenseRDF(w http.ResponseWriter, r *http.Request) {
	var req cchttp.FetchLicenseRDFRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.licensing.Handler.FetchLicenseRDFHandler(r.Context(), req)
	if err != nil {
		s.writeLicensingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeLicensingError maps domain errors first; the failure classes only
// decide the response when no specific sentinel matched.
func (s *Server) writeLicensingError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "license_too_large", err.Error())
	case errors.Is(err, ccerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ccerrors.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, ccerrors.ErrBitstreamNotFound):
		writeError(w, http.StatusNotFound, "bitstream_not_found", err.Error())
	case errors.Is(err, ccerrors.ErrUnknownLicenseField):
		writeError(w, http.StatusNotFound, "unknown_license_field", err.Error())
	case errors.Is(err, ccerrors.ErrInvalidLicenseDocument):
		writeError(w, http.StatusUnprocessableEntity, "invalid_license_document", err.Error())
	case errors.Is(err, ccerrors.ErrInvalidLicenseRequest),
		errors.Is(err, ccerrors.ErrInvalidMetadataField):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ccerrors.ErrLicensingDisabled):
		writeError(w, http.StatusConflict, "licensing_disabled", err.Error())
	case errors.Is(err, ccerrors.ErrBitstreamIO):
		s.logInternalError(r, err)
		writeError(w, http.StatusBadGateway, "bitstream_io_failure", "bitstream storage failed")
	case errors.Is(err, ccerrors.ErrPersistence):
		s.logInternalError(r, err)
		writeError(w, http.StatusServiceUnavailable, "persistence_failure", "item persistence failed")
	default:
		s.logInternalError(r, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
