package ports

import (
	"context"
	"io"
	"time"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
)

// Clock allows deterministic timestamp handling.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts identifier generation for process records.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Authorizer decides whether actorID holds permission. Denials are reported
// as domain ErrForbidden.
type Authorizer interface {
	Authorize(ctx context.Context, actorID string, permission string) error
}

const (
	PermissionScriptRun  = "script.run"
	PermissionScriptRead = "script.read"
)

// ProcessFilter narrows ListProcesses.
type ProcessFilter struct {
	ScriptName string
	UserID     string
	Status     entities.ProcessStatus
	Cursor     string
	Limit      int
}

// ProcessResult is the terminal state written when a run ends.
type ProcessResult struct {
	Status     entities.ProcessStatus
	Output     []byte
	Log        []string
	Error      string
	FinishedAt time.Time
}

// ProcessRepository persists process records. Status changes that violate
// ProcessStatus.CanTransition fail with ErrInvalidTransition.
type ProcessRepository interface {
	CreateProcess(ctx context.Context, process entities.Process) error
	GetProcess(ctx context.Context, processID string) (entities.Process, error)
	ListProcesses(ctx context.Context, filter ProcessFilter) ([]entities.Process, string, error)
	MarkRunning(ctx context.Context, processID string, startedAt time.Time) error
	FinishProcess(ctx context.Context, processID string, result ProcessResult) error
}

// JobExecutor runs submitted jobs on a bounded pool. Submit never blocks.
type JobExecutor interface {
	Submit(processID string, run func(ctx context.Context)) error
	Cancel(processID string) bool
}

// RunRequest is the input handed to a script runner.
type RunRequest struct {
	ProcessID  string
	UserID     string
	Parameters map[string]string
	Input      []byte
}

// RunLog receives progress lines for the process log.
type RunLog interface {
	Printf(format string, args ...any)
}

// Runner executes one script. Output receives the script's artifact.
type Runner interface {
	Run(ctx context.Context, req RunRequest, output io.Writer, log RunLog) error
}

// CatalogValue is one metadata value seen by batch scripts.
type CatalogValue struct {
	Schema    string
	Element   string
	Qualifier string
	Language  string
	Value     string
}

// Field renders schema.element[.qualifier].
func (v CatalogValue) Field() string {
	if v.Qualifier == "" {
		return v.Schema + "." + v.Element
	}
	return v.Schema + "." + v.Element + "." + v.Qualifier
}

type CatalogItem struct {
	ItemID       string
	CollectionID string
	Metadata     []CatalogValue
}

// FieldUpdate replaces every value of Field with Values. Languages is
// parallel to Values.
type FieldUpdate struct {
	Field     string
	Values    []string
	Languages []string
}

// ItemCatalog is the repository content seen by metadata import/export.
type ItemCatalog interface {
	ListItems(ctx context.Context, itemIDs []string) ([]CatalogItem, error)
	ReplaceMetadata(ctx context.Context, itemID string, updates []FieldUpdate) error
}

// RegistryOverrides is the parsed script registry file.
type RegistryOverrides struct {
	CorePoolSize  int
	QueueCapacity int
	Scripts       map[string]ScriptOverride
}

type ScriptOverride struct {
	Description string
	Disabled    bool
	Options     []entities.ScriptOption
}
