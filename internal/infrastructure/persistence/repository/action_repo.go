package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ApprovalActionRepository implements port.ApprovalActionRepository
type ApprovalActionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalActionRepository creates a new approval action repository
func NewApprovalActionRepository(db *sql.DB, logger *zap.Logger) port.ApprovalActionRepository {
	return &ApprovalActionRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a decision record. Rows are never updated or deleted.
func (r *ApprovalActionRepository) Create(ctx context.Context, action *entity.ApprovalAction) error {
	query := `
		INSERT INTO approval_actions (report_uuid, step_uuid, person_uuid, type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		action.ReportUUID, action.StepUUID, action.PersonUUID, action.Type, action.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create approval action",
			zap.String("report_uuid", action.ReportUUID),
			zap.String("type", action.Type),
			zap.Error(err))
		return fmt.Errorf("failed to create approval action: %w", err)
	}

	action.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get approval action id: %w", err)
	}
	return nil
}

// GetByReportUUID returns a report's decision history, oldest first
func (r *ApprovalActionRepository) GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.ApprovalAction, error) {
	query := `
		SELECT id, report_uuid, step_uuid, person_uuid, type, created_at
		FROM approval_actions
		WHERE report_uuid = ?
		ORDER BY id
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get approval actions", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval actions: %w", err)
	}
	defer rows.Close()

	var actions []*entity.ApprovalAction
	for rows.Next() {
		var action entity.ApprovalAction
		err := rows.Scan(
			&action.ID,
			&action.ReportUUID,
			&action.StepUUID,
			&action.PersonUUID,
			&action.Type,
			&action.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval action: %w", err)
		}
		actions = append(actions, &action)
	}
	return actions, rows.Err()
}

// Verify interface compliance
var _ port.ApprovalActionRepository = (*ApprovalActionRepository)(nil)
