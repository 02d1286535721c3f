package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists script processes with gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateProcess(ctx context.Context, process entities.Process) error {
	row, err := processModelFromEntity(process)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate process %s", domainerrors.ErrInvalidRequest, process.ProcessID)
		}
		return err
	}
	return nil
}

func (r *Repository) GetProcess(ctx context.Context, processID string) (entities.Process, error) {
	var row processModel
	err := r.db.WithContext(ctx).Where("process_id = ?", processID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Process{}, domainerrors.ErrProcessNotFound
	}
	if err != nil {
		return entities.Process{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListProcesses(ctx context.Context, filter ports.ProcessFilter) ([]entities.Process, string, error) {
	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&processModel{})
	if filter.ScriptName != "" {
		query = query.Where("script_name = ?", filter.ScriptName)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []processModel
	if err := query.
		Order("created_at DESC").
		Order("process_id DESC").
		Offset(offset).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = encodeCursor(offset + limit)
	}
	items := make([]entities.Process, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, "", err
		}
		items = append(items, item)
	}
	return items, next, nil
}

func (r *Repository) MarkRunning(ctx context.Context, processID string, startedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockProcess(tx, processID)
		if err != nil {
			return err
		}
		if !entities.ProcessStatus(row.Status).CanTransition(entities.ProcessRunning) {
			return domainerrors.ErrInvalidTransition
		}
		return tx.Model(&processModel{}).
			Where("process_id = ?", processID).
			Updates(map[string]any{
				"status":     string(entities.ProcessRunning),
				"started_at": startedAt.UTC(),
			}).Error
	})
}

func (r *Repository) FinishProcess(ctx context.Context, processID string, result ports.ProcessResult) error {
	logPayload, err := json.Marshal(nonNilLog(result.Log))
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockProcess(tx, processID)
		if err != nil {
			return err
		}
		if !result.Status.Terminal() || !entities.ProcessStatus(row.Status).CanTransition(result.Status) {
			return domainerrors.ErrInvalidTransition
		}
		return tx.Model(&processModel{}).
			Where("process_id = ?", processID).
			Updates(map[string]any{
				"status":      string(result.Status),
				"output":      result.Output,
				"log_lines":   string(logPayload),
				"error":       result.Error,
				"finished_at": result.FinishedAt.UTC(),
			}).Error
	})
}

func lockProcess(tx *gorm.DB, processID string) (processModel, error) {
	var row processModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("process_id = ?", processID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return processModel{}, domainerrors.ErrProcessNotFound
	}
	return row, err
}

type processModel struct {
	ProcessID  string     `gorm:"column:process_id;primaryKey"`
	ScriptName string     `gorm:"column:script_name"`
	UserID     string     `gorm:"column:user_id"`
	Parameters string     `gorm:"column:parameters"`
	Status     string     `gorm:"column:status"`
	Output     []byte     `gorm:"column:output"`
	LogLines   string     `gorm:"column:log_lines"`
	Error      string     `gorm:"column:error"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	StartedAt  *time.Time `gorm:"column:started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
}

func (processModel) TableName() string {
	return "script_processes"
}

func processModelFromEntity(process entities.Process) (processModel, error) {
	parameters := process.Parameters
	if parameters == nil {
		parameters = map[string]string{}
	}
	params, err := json.Marshal(parameters)
	if err != nil {
		return processModel{}, err
	}
	logLines, err := json.Marshal(nonNilLog(process.Log))
	if err != nil {
		return processModel{}, err
	}
	return processModel{
		ProcessID:  process.ProcessID,
		ScriptName: process.ScriptName,
		UserID:     process.UserID,
		Parameters: string(params),
		Status:     string(process.Status),
		Output:     process.Output,
		LogLines:   string(logLines),
		Error:      process.Error,
		CreatedAt:  process.CreatedAt.UTC(),
		StartedAt:  process.StartedAt,
		FinishedAt: process.FinishedAt,
	}, nil
}

func (m processModel) toEntity() (entities.Process, error) {
	process := entities.Process{
		ProcessID:  m.ProcessID,
		ScriptName: m.ScriptName,
		UserID:     m.UserID,
		Status:     entities.ProcessStatus(m.Status),
		Output:     m.Output,
		Error:      m.Error,
		CreatedAt:  m.CreatedAt.UTC(),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
	if err := json.Unmarshal([]byte(m.Parameters), &process.Parameters); err != nil {
		return entities.Process{}, fmt.Errorf("decode process parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(m.LogLines), &process.Log); err != nil {
		return entities.Process{}, fmt.Errorf("decode process log: %w", err)
	}
	return process, nil
}

func nonNilLog(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidRequest
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, domainerrors.ErrInvalidRequest
	}
	return offset, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
