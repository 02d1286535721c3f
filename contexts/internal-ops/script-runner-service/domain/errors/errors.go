package errors

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrScriptNotFound        = errors.New("script not found")
	ErrScriptAlreadyExists   = errors.New("script already registered")
	ErrProcessNotFound       = errors.New("process not found")
	ErrProcessFinished       = errors.New("process already finished")
	ErrInvalidTransition     = errors.New("invalid process status transition")
	ErrForbidden             = errors.New("forbidden")
	ErrExecutorSaturated     = errors.New("script executor saturated")
	ErrExecutorStopped       = errors.New("script executor stopped")
	ErrInvalidCSV            = errors.New("invalid metadata csv")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
