package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	scripterrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	scripthttp "ccdepot/contexts/internal-ops/script-runner-service/transport/http"
)

func (s *Server) registerScriptRoutes() {
	s.mux.HandleFunc("GET /v1/scripts", s.handleListScripts)
	s.mux.HandleFunc("POST /v1/scripts/{script}/processes", s.handleStartProcess)
	s.mux.HandleFunc("GET /v1/processes", s.handleListProcesses)
	s.mux.HandleFunc("GET /v1/processes/{process_id}", s.handleGetProcess)
	s.mux.HandleFunc("GET /v1/processes/{process_id}/output", s.handleGetProcessOutput)
	s.mux.HandleFunc("POST /v1/processes/{process_id}/cancel", s.handleCancelProcess)
}

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.scripts.Handler.ListScriptsHandler(r.Context(), userID)
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartProcess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req scripthttp.StartProcessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.scripts.Handler.StartProcessHandler(r.Context(), userID, r.PathValue("script"), req)
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.scripts.Handler.ListProcessesHandler(r.Context(), userID, scripthttp.ListProcessesRequest{
		ScriptName: query.Get("script"),
		Status:     query.Get("status"),
		Cursor:     query.Get("cursor"),
		Limit:      limit,
	})
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.scripts.Handler.GetProcessHandler(r.Context(), userID, r.PathValue("process_id"))
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProcessOutput(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	processID := r.PathValue("process_id")
	output, err := s.scripts.Handler.GetProcessOutputHandler(r.Context(), userID, processID)
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(processID+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(output)
}

func (s *Server) handleCancelProcess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.scripts.Handler.CancelProcessHandler(r.Context(), userID, r.PathValue("process_id"))
	if err != nil {
		s.writeScriptError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeScriptError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scripterrors.ErrInvalidRequest),
		errors.Is(err, scripterrors.ErrInvalidCSV):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scripterrors.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, scripterrors.ErrScriptNotFound):
		writeError(w, http.StatusNotFound, "script_not_found", err.Error())
	case errors.Is(err, scripterrors.ErrProcessNotFound):
		writeError(w, http.StatusNotFound, "process_not_found", err.Error())
	case errors.Is(err, scripterrors.ErrProcessFinished),
		errors.Is(err, scripterrors.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, scripterrors.ErrExecutorSaturated),
		errors.Is(err, scripterrors.ErrExecutorStopped):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "executor_unavailable", err.Error())
	default:
		s.logInternalError(r, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
