package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/domain/services"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// Service schedules registered scripts on the executor and tracks processes.
type Service struct {
	Registry    *Registry
	Executor    ports.JobExecutor
	Processes   ports.ProcessRepository
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

type StartProcessInput struct {
	ScriptName string
	Parameters map[string]string
	Input      []byte
}

func (s Service) ListScripts(ctx context.Context, actorID string) ([]entities.ScriptConfiguration, error) {
	if err := s.authorize(ctx, actorID, ports.PermissionScriptRead); err != nil {
		return nil, err
	}
	return s.Registry.List(), nil
}

// StartProcess records a scheduled process and submits it. When the executor
// refuses the job the process is marked failed and the refusal returned.
func (s Service) StartProcess(ctx context.Context, actorID string, input StartProcessInput) (entities.Process, error) {
	logger := ResolveLogger(s.Logger)
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(input.ScriptName) == "" {
		return entities.Process{}, domainerrors.ErrInvalidRequest
	}
	if err := s.authorize(ctx, actorID, ports.PermissionScriptRun); err != nil {
		return entities.Process{}, err
	}
	script, err := s.Registry.Lookup(input.ScriptName)
	if err != nil {
		return entities.Process{}, err
	}
	params, err := services.NormalizeParameters(script.Config, input.Parameters)
	if err != nil {
		return entities.Process{}, err
	}
	processID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Process{}, err
	}

	process := entities.Process{
		ProcessID:  processID,
		ScriptName: script.Config.Name,
		UserID:     actorID,
		Parameters: params,
		Status:     entities.ProcessScheduled,
		Log:        []string{},
		CreatedAt:  s.now(),
	}
	if err := s.Processes.CreateProcess(ctx, process); err != nil {
		return entities.Process{}, err
	}

	request := ports.RunRequest{
		ProcessID:  processID,
		UserID:     actorID,
		Parameters: params,
		Input:      append([]byte(nil), input.Input...),
	}
	if err := s.Executor.Submit(processID, s.runner(script, request)); err != nil {
		finishedAt := s.now()
		if finishErr := s.Processes.FinishProcess(ctx, processID, ports.ProcessResult{
			Status:     entities.ProcessFailed,
			Log:        []string{},
			Error:      err.Error(),
			FinishedAt: finishedAt,
		}); finishErr != nil {
			logger.Error("script process finish failed",
				"event", "script_process_finish_failed",
				"module", ModuleName,
				"layer", "application",
				"process_id", processID,
				"error", finishErr.Error(),
			)
		}
		return entities.Process{}, err
	}

	logger.Info("script process scheduled",
		"event", "script_process_scheduled",
		"module", ModuleName,
		"layer", "application",
		"process_id", processID,
		"script", script.Config.Name,
		"user_id", actorID,
	)
	return process, nil
}

func (s Service) GetProcess(ctx context.Context, actorID string, processID string) (entities.Process, error) {
	if strings.TrimSpace(processID) == "" {
		return entities.Process{}, domainerrors.ErrInvalidRequest
	}
	if err := s.authorize(ctx, actorID, ports.PermissionScriptRead); err != nil {
		return entities.Process{}, err
	}
	return s.Processes.GetProcess(ctx, processID)
}

func (s Service) ListProcesses(ctx context.Context, actorID string, filter ports.ProcessFilter) ([]entities.Process, string, error) {
	if err := s.authorize(ctx, actorID, ports.PermissionScriptRead); err != nil {
		return nil, "", err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, "", domainerrors.ErrInvalidRequest
	}
	if filter.Limit < 0 || filter.Limit > 100 {
		return nil, "", domainerrors.ErrInvalidRequest
	}
	return s.Processes.ListProcesses(ctx, filter)
}

// CancelProcess cancels a scheduled or running process. A scheduled process
// the executor no longer knows is marked cancelled directly.
func (s Service) CancelProcess(ctx context.Context, actorID string, processID string) (entities.Process, error) {
	if err := s.authorize(ctx, actorID, ports.PermissionScriptRun); err != nil {
		return entities.Process{}, err
	}
	process, err := s.Processes.GetProcess(ctx, processID)
	if err != nil {
		return entities.Process{}, err
	}
	if process.Status.Terminal() {
		return entities.Process{}, domainerrors.ErrProcessFinished
	}
	if !s.Executor.Cancel(processID) {
		err := s.Processes.FinishProcess(ctx, processID, ports.ProcessResult{
			Status:     entities.ProcessCancelled,
			Log:        process.Log,
			Error:      context.Canceled.Error(),
			FinishedAt: s.now(),
		})
		if err != nil && !errors.Is(err, domainerrors.ErrInvalidTransition) {
			return entities.Process{}, err
		}
	}
	ResolveLogger(s.Logger).Info("script process cancel requested",
		"event", "script_process_cancel_requested",
		"module", ModuleName,
		"layer", "application",
		"process_id", processID,
		"user_id", actorID,
	)
	return s.Processes.GetProcess(ctx, processID)
}

// runner returns the job executed by the pool. State writes use a context
// detached from cancellation so a cancelled run is still recorded.
func (s Service) runner(script Script, request ports.RunRequest) func(ctx context.Context) {
	return func(ctx context.Context) {
		logger := ResolveLogger(s.Logger)
		store := context.WithoutCancel(ctx)
		log := &processLog{}

		if err := ctx.Err(); err != nil {
			s.finish(store, request.ProcessID, entities.ProcessCancelled, nil, log, err)
			return
		}
		if err := s.Processes.MarkRunning(store, request.ProcessID, s.now()); err != nil {
			logger.Error("script process start failed",
				"event", "script_process_start_failed",
				"module", ModuleName,
				"layer", "worker",
				"process_id", request.ProcessID,
				"error", err.Error(),
			)
			return
		}

		var output bytes.Buffer
		runErr := runSafely(ctx, script.Runner, request, &output, log)
		status := entities.ProcessCompleted
		switch {
		case ctx.Err() != nil:
			status = entities.ProcessCancelled
			runErr = ctx.Err()
		case runErr != nil:
			status = entities.ProcessFailed
		}
		s.finish(store, request.ProcessID, status, output.Bytes(), log, runErr)
	}
}

func runSafely(ctx context.Context, runner ports.Runner, request ports.RunRequest, output *bytes.Buffer, log *processLog) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("script panicked: %v", recovered)
		}
	}()
	return runner.Run(ctx, request, output, log)
}

func (s Service) finish(ctx context.Context, processID string, status entities.ProcessStatus, output []byte, log *processLog, runErr error) {
	result := ports.ProcessResult{
		Status:     status,
		Output:     output,
		Log:        log.Lines(),
		FinishedAt: s.now(),
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	logger := ResolveLogger(s.Logger)
	if err := s.Processes.FinishProcess(ctx, processID, result); err != nil {
		logger.Error("script process finish failed",
			"event", "script_process_finish_failed",
			"module", ModuleName,
			"layer", "worker",
			"process_id", processID,
			"error", err.Error(),
		)
		return
	}
	logger.Info("script process finished",
		"event", "script_process_finished",
		"module", ModuleName,
		"layer", "worker",
		"process_id", processID,
		"status", string(status),
		"error", result.Error,
	)
}

func (s Service) authorize(ctx context.Context, actorID string, permission string) error {
	if s.Authorizer == nil {
		return nil
	}
	if strings.TrimSpace(actorID) == "" {
		return domainerrors.ErrForbidden
	}
	return s.Authorizer.Authorize(ctx, actorID, permission)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// processLog collects runner progress lines; runners may log from several
// goroutines.
type processLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *processLog) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *processLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.lines...)
}
