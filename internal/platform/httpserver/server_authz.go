package httpserver

import (
	"errors"
	"net/http"
	"strings"

	authzerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "ccdepot/contexts/identity-access/authorization-service/transport/http"
)

func (s *Server) registerAuthzRoutes() {
	s.mux.HandleFunc("POST /v1/authz/check", s.handleAuthzCheck)
	s.mux.HandleFunc("POST /v1/authz/check-batch", s.handleAuthzCheckBatch)
	s.mux.HandleFunc("GET /v1/authz/roles", s.handleAuthzListRoles)
	s.mux.HandleFunc("GET /v1/authz/users/{user_id}/roles", s.handleAuthzListUserRoles)
	s.mux.HandleFunc("GET /v1/authz/users/{user_id}/permissions", s.handleAuthzListPermissions)
	s.mux.HandleFunc("POST /v1/authz/users/{user_id}/roles", s.handleAuthzGrantRole)
	s.mux.HandleFunc("POST /v1/authz/users/{user_id}/roles/revoke", s.handleAuthzRevokeRole)
}

func (s *Server) handleAuthzCheck(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CheckPermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.CheckPermissionHandler(r.Context(), resolveAuthzUserID(req.UserID, r), req)
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzCheckBatch(w http.ResponseWriter, r *http.Request) {
	var req authzhttp.CheckBatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.CheckBatchHandler(r.Context(), resolveAuthzUserID(req.UserID, r), req)
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzListRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.authorization.Handler.ListRolesHandler(r.Context())
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzListUserRoles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.authorization.Handler.ListUserRolesHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzListPermissions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.authorization.Handler.ListPermissionsHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzGrantRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req authzhttp.GrantRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.GrantRoleHandler(
		r.Context(),
		r.PathValue("user_id"),
		adminID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAuthzRevokeRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req authzhttp.RevokeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.authorization.Handler.RevokeRoleHandler(
		r.Context(),
		r.PathValue("user_id"),
		adminID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		s.writeAuthzError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeAuthzError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrInvalidPermission):
		writeError(w, http.StatusUnprocessableEntity, "invalid_permission", err.Error())
	case errors.Is(err, authzerrors.ErrInvalidUserID),
		errors.Is(err, authzerrors.ErrInvalidRoleID),
		errors.Is(err, authzerrors.ErrInvalidAdminID):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, authzerrors.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, authzerrors.ErrRoleAlreadyAssigned),
		errors.Is(err, authzerrors.ErrRoleNotAssigned),
		errors.Is(err, authzerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, authzerrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		s.logInternalError(r, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// resolveAuthzUserID prefers the subject in the body over the caller header.
func resolveAuthzUserID(bodyUserID string, r *http.Request) string {
	if strings.TrimSpace(bodyUserID) != "" {
		return bodyUserID
	}
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
