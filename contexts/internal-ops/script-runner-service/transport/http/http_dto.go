package httptransport

import "time"

type ScriptOptionDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type ScriptDTO struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Options     []ScriptOptionDTO `json:"options"`
}

type ListScriptsResponse struct {
	Scripts []ScriptDTO `json:"scripts"`
}

// StartProcessRequest starts a script. Input carries the uploaded file for
// scripts that read one (metadata-import).
type StartProcessRequest struct {
	Parameters map[string]string `json:"parameters,omitempty"`
	Input      string            `json:"input,omitempty"`
}

type ProcessDTO struct {
	ProcessID  string            `json:"process_id"`
	ScriptName string            `json:"script_name"`
	UserID     string            `json:"user_id"`
	Parameters map[string]string `json:"parameters"`
	Status     string            `json:"status"`
	Log        []string          `json:"log"`
	Error      string            `json:"error,omitempty"`
	HasOutput  bool              `json:"has_output"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

type ProcessResponse struct {
	Process ProcessDTO `json:"process"`
}

type ListProcessesRequest struct {
	ScriptName string
	Status     string
	Cursor     string
	Limit      int
}

type ListProcessesResponse struct {
	Processes  []ProcessDTO `json:"processes"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
