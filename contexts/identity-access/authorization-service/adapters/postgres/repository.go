package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/domain/services"
	"ccdepot/contexts/identity-access/authorization-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository stores role assignments, idempotency records, consumed-event
// dedup rows and the policy outbox. The role catalog itself is code-defined.
type Repository struct {
	db     *gorm.DB
	roles  map[string]entities.Role
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		roles:  services.DefaultRoles(),
		logger: logger,
	}
}

func (r *Repository) ListRoles(_ context.Context) ([]entities.Role, error) {
	roles := make([]entities.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func (r *Repository) ListEffectivePermissions(ctx context.Context, userID string, now time.Time) ([]string, error) {
	var rows []assignmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	assignments := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toEntity())
	}
	return services.EffectivePermissions(r.roles, assignments, now), nil
}

func (r *Repository) ListUserRoles(ctx context.Context, userID string, now time.Time) ([]entities.RoleAssignment, error) {
	var rows []assignmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("NOT (is_active AND expires_at IS NOT NULL AND expires_at <= ?)", now.UTC()).
		Order("assigned_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GrantRole(ctx context.Context, input ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	role, ok := r.roles[input.RoleID]
	if !ok {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleNotFound
	}

	assignment := entities.RoleAssignment{
		AssignmentID: input.AssignmentID,
		UserID:       input.UserID,
		RoleID:       input.RoleID,
		RoleName:     role.RoleName,
		AssignedBy:   input.AdminID,
		Reason:       input.Reason,
		AssignedAt:   input.AssignedAt.UTC(),
		ExpiresAt:    input.ExpiresAt,
		IsActive:     true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active []assignmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND role_id = ? AND is_active = ?", input.UserID, input.RoleID, true).
			Find(&active).Error; err != nil {
			return err
		}
		for _, existing := range active {
			if existing.toEntity().ActiveAt(input.AssignedAt) {
				return domainerrors.ErrRoleAlreadyAssigned
			}
		}
		model := assignmentModelFromEntity(assignment)
		if err := tx.Create(&model).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRoleAlreadyAssigned
			}
			return err
		}
		return appendOutbox(tx, input.OutboxID, input.UserID, input.RoleID, "role_granted", input.AssignedAt)
	})
	if err != nil {
		return ports.RoleMutationResult{}, err
	}
	return ports.RoleMutationResult{Assignment: assignment}, nil
}

func (r *Repository) RevokeRole(ctx context.Context, input ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	var revoked entities.RoleAssignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row assignmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND role_id = ? AND is_active = ?", input.UserID, input.RoleID, true).
			Order("assigned_at DESC").
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRoleNotAssigned
			}
			return err
		}
		revokedAt := input.RevokedAt.UTC()
		if err := tx.Model(&assignmentModel{}).
			Where("assignment_id = ?", row.AssignmentID).
			Updates(map[string]any{"is_active": false, "revoked_at": revokedAt}).Error; err != nil {
			return err
		}
		row.IsActive = false
		row.RevokedAt = &revokedAt
		revoked = row.toEntity()
		return appendOutbox(tx, input.OutboxID, input.UserID, input.RoleID, "role_revoked", input.RevokedAt)
	})
	if err != nil {
		return ports.RoleMutationResult{}, err
	}
	return ports.RoleMutationResult{Assignment: revoked}, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", key, now.UTC()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return row.toPort(), true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             record.Key,
		Operation:       record.Operation,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"response_payload", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "authz_idempotency", Name: "request_hash"}, Value: record.RequestHash},
			}},
		}).
		Create(&row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC, outbox_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox record not found")
	}
	return nil
}

func (r *Repository) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	row := dedupModel{EventID: eventID, PayloadHash: payloadHash, ExpiresAt: expiresAt.UTC()}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return false, nil
	}

	var existing dedupModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&existing).Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		r.logger.Warn("consumed event payload mismatch",
			"event", "authz_event_dedup_conflict",
			"module", application.ModuleName,
			"layer", "adapter",
			"event_id", eventID,
		)
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func appendOutbox(tx *gorm.DB, outboxID string, userID string, roleID string, action string, createdAt time.Time) error {
	event, err := application.BuildPolicyChangedEvent(outboxID, userID, roleID, action, createdAt)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:  outboxID,
		EventType: ports.PolicyChangedEventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: createdAt.UTC(),
	}).Error
}

type assignmentModel struct {
	AssignmentID string     `gorm:"column:assignment_id;primaryKey"`
	UserID       string     `gorm:"column:user_id"`
	RoleID       string     `gorm:"column:role_id"`
	RoleName     string     `gorm:"column:role_name"`
	AssignedBy   string     `gorm:"column:assigned_by"`
	Reason       string     `gorm:"column:reason"`
	AssignedAt   time.Time  `gorm:"column:assigned_at"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsActive     bool       `gorm:"column:is_active"`
	RevokedAt    *time.Time `gorm:"column:revoked_at"`
}

func (assignmentModel) TableName() string {
	return "authz_role_assignments"
}

func assignmentModelFromEntity(assignment entities.RoleAssignment) assignmentModel {
	return assignmentModel{
		AssignmentID: assignment.AssignmentID,
		UserID:       assignment.UserID,
		RoleID:       assignment.RoleID,
		RoleName:     assignment.RoleName,
		AssignedBy:   assignment.AssignedBy,
		Reason:       assignment.Reason,
		AssignedAt:   assignment.AssignedAt.UTC(),
		ExpiresAt:    assignment.ExpiresAt,
		IsActive:     assignment.IsActive,
		RevokedAt:    assignment.RevokedAt,
	}
}

func (m assignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		AssignmentID: m.AssignmentID,
		UserID:       m.UserID,
		RoleID:       m.RoleID,
		RoleName:     m.RoleName,
		AssignedBy:   m.AssignedBy,
		Reason:       m.Reason,
		AssignedAt:   m.AssignedAt.UTC(),
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
		RevokedAt:    m.RevokedAt,
	}
}

type idempotencyModel struct {
	Key             string    `gorm:"column:idempotency_key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "authz_idempotency"
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:             m.Key,
		Operation:       m.Operation,
		RequestHash:     m.RequestHash,
		ResponsePayload: m.ResponsePayload,
		ExpiresAt:       m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "authz_outbox"
}

type dedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (dedupModel) TableName() string {
	return "authz_event_dedup"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
