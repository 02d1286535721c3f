package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"ccdepot/contexts/internal-ops/script-runner-service/application"
	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
	httptransport "ccdepot/contexts/internal-ops/script-runner-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// ListScriptsHandler godoc
// @Summary List scripts
// @Tags scripts
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Success 200 {object} httptransport.ListScriptsResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /v1/scripts [get]
func (h Handler) ListScriptsHandler(ctx context.Context, actorUserID string) (httptransport.ListScriptsResponse, error) {
	scripts, err := h.Service.ListScripts(ctx, actorUserID)
	if err != nil {
		return httptransport.ListScriptsResponse{}, err
	}
	items := make([]httptransport.ScriptDTO, 0, len(scripts))
	for _, script := range scripts {
		options := make([]httptransport.ScriptOptionDTO, 0, len(script.Options))
		for _, option := range script.Options {
			options = append(options, httptransport.ScriptOptionDTO{
				Name:        option.Name,
				Description: option.Description,
				Required:    option.Required,
			})
		}
		items = append(items, httptransport.ScriptDTO{
			Name:        script.Name,
			Description: script.Description,
			Options:     options,
		})
	}
	return httptransport.ListScriptsResponse{Scripts: items}, nil
}

// StartProcessHandler godoc
// @Summary Start script process
// @Description Schedules a script on the executor. Returns 503 when the queue is full.
// @Tags scripts
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param script path string true "Script name"
// @Param request body httptransport.StartProcessRequest true "Parameters"
// @Success 202 {object} httptransport.ProcessResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/scripts/{script}/processes [post]
func (h Handler) StartProcessHandler(
	ctx context.Context,
	actorUserID string,
	scriptName string,
	req httptransport.StartProcessRequest,
) (httptransport.ProcessResponse, error) {
	process, err := h.Service.StartProcess(ctx, actorUserID, application.StartProcessInput{
		ScriptName: strings.TrimSpace(scriptName),
		Parameters: req.Parameters,
		Input:      []byte(req.Input),
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("script start rejected",
			"event", "script_http_start_rejected",
			"module", application.ModuleName,
			"layer", "transport",
			"script", scriptName,
			"user_id", actorUserID,
			"error", err.Error(),
		)
		return httptransport.ProcessResponse{}, err
	}
	return httptransport.ProcessResponse{Process: mapProcess(process)}, nil
}

// GetProcessHandler godoc
// @Summary Get process
// @Tags scripts
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param process_id path string true "Process id"
// @Success 200 {object} httptransport.ProcessResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/processes/{process_id} [get]
func (h Handler) GetProcessHandler(ctx context.Context, actorUserID string, processID string) (httptransport.ProcessResponse, error) {
	process, err := h.Service.GetProcess(ctx, actorUserID, strings.TrimSpace(processID))
	if err != nil {
		return httptransport.ProcessResponse{}, err
	}
	return httptransport.ProcessResponse{Process: mapProcess(process)}, nil
}

// GetProcessOutputHandler godoc
// @Summary Download process output
// @Tags scripts
// @Produce octet-stream
// @Param X-User-Id header string true "Acting user"
// @Param process_id path string true "Process id"
// @Success 200 {file} file
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/processes/{process_id}/output [get]
func (h Handler) GetProcessOutputHandler(ctx context.Context, actorUserID string, processID string) ([]byte, error) {
	process, err := h.Service.GetProcess(ctx, actorUserID, strings.TrimSpace(processID))
	if err != nil {
		return nil, err
	}
	return process.Output, nil
}

// ListProcessesHandler godoc
// @Summary List processes
// @Tags scripts
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param script query string false "Script name"
// @Param status query string false "Process status"
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ListProcessesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/processes [get]
func (h Handler) ListProcessesHandler(
	ctx context.Context,
	actorUserID string,
	req httptransport.ListProcessesRequest,
) (httptransport.ListProcessesResponse, error) {
	processes, next, err := h.Service.ListProcesses(ctx, actorUserID, ports.ProcessFilter{
		ScriptName: strings.TrimSpace(req.ScriptName),
		Status:     entities.ProcessStatus(strings.TrimSpace(req.Status)),
		Cursor:     req.Cursor,
		Limit:      req.Limit,
	})
	if err != nil {
		return httptransport.ListProcessesResponse{}, err
	}
	items := make([]httptransport.ProcessDTO, 0, len(processes))
	for _, process := range processes {
		items = append(items, mapProcess(process))
	}
	return httptransport.ListProcessesResponse{Processes: items, NextCursor: next}, nil
}

// CancelProcessHandler godoc
// @Summary Cancel process
// @Tags scripts
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param process_id path string true "Process id"
// @Success 200 {object} httptransport.ProcessResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/processes/{process_id}/cancel [post]
func (h Handler) CancelProcessHandler(ctx context.Context, actorUserID string, processID string) (httptransport.ProcessResponse, error) {
	process, err := h.Service.CancelProcess(ctx, actorUserID, strings.TrimSpace(processID))
	if err != nil {
		return httptransport.ProcessResponse{}, err
	}
	return httptransport.ProcessResponse{Process: mapProcess(process)}, nil
}

func mapProcess(process entities.Process) httptransport.ProcessDTO {
	params := process.Parameters
	if params == nil {
		params = map[string]string{}
	}
	logLines := process.Log
	if logLines == nil {
		logLines = []string{}
	}
	return httptransport.ProcessDTO{
		ProcessID:  process.ProcessID,
		ScriptName: process.ScriptName,
		UserID:     process.UserID,
		Parameters: params,
		Status:     string(process.Status),
		Log:        logLines,
		Error:      process.Error,
		HasOutput:  len(process.Output) > 0,
		CreatedAt:  process.CreatedAt,
		StartedAt:  process.StartedAt,
		FinishedAt: process.FinishedAt,
	}
}
