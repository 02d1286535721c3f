package entities

import "time"

type ProcessStatus string

const (
	ProcessScheduled ProcessStatus = "scheduled"
	ProcessRunning   ProcessStatus = "running"
	ProcessCompleted ProcessStatus = "completed"
	ProcessFailed    ProcessStatus = "failed"
	ProcessCancelled ProcessStatus = "cancelled"
)

func (s ProcessStatus) Valid() bool {
	switch s {
	case ProcessScheduled, ProcessRunning, ProcessCompleted, ProcessFailed, ProcessCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s ProcessStatus) Terminal() bool {
	return s == ProcessCompleted || s == ProcessFailed || s == ProcessCancelled
}

// CanTransition reports whether a process may move from s to next.
func (s ProcessStatus) CanTransition(next ProcessStatus) bool {
	switch s {
	case ProcessScheduled:
		return next == ProcessRunning || next.Terminal()
	case ProcessRunning:
		return next.Terminal()
	}
	return false
}

// Process is one execution of a registered script.
type Process struct {
	ProcessID  string            `json:"process_id"`
	ScriptName string            `json:"script_name"`
	UserID     string            `json:"user_id"`
	Parameters map[string]string `json:"parameters"`
	Status     ProcessStatus     `json:"status"`
	Output     []byte            `json:"output,omitempty"`
	Log        []string          `json:"log"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}
