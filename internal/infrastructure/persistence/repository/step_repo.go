package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ApprovalStepRepository implements port.ApprovalStepRepository
type ApprovalStepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalStepRepository creates a new approval step repository
func NewApprovalStepRepository(db *sql.DB, logger *zap.Logger) port.ApprovalStepRepository {
	return &ApprovalStepRepository{
		db:     db,
		logger: logger,
	}
}

const stepColumns = `uuid, name, advisor_org_uuid, next_step_uuid`

// GetByUUID retrieves a step with its approver positions; (nil, nil) when it
// does not exist.
func (r *ApprovalStepRepository) GetByUUID(ctx context.Context, uuid string) (*entity.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps WHERE uuid = ?`

	step, err := scanStep(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval step", zap.String("step_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval step: %w", err)
	}

	step.ApproverPositions, err = r.GetApprovers(ctx, step.UUID)
	if err != nil {
		return nil, err
	}
	return step, nil
}

// GetStepsForOrg returns the organization's steps in storage order. Chain
// ordering by next-step links is the resolver's concern.
func (r *ApprovalStepRepository) GetStepsForOrg(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps WHERE advisor_org_uuid = ? ORDER BY uuid`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, orgUUID)
	if err != nil {
		r.logger.Error("Failed to get approval steps", zap.String("org_uuid", orgUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*entity.ApprovalStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, step := range steps {
		step.ApproverPositions, err = r.GetApprovers(ctx, step.UUID)
		if err != nil {
			return nil, err
		}
	}
	return steps, nil
}

// GetApprovers returns the approver positions configured for a step,
// vacant ones included.
func (r *ApprovalStepRepository) GetApprovers(ctx context.Context, stepUUID string) ([]entity.Position, error) {
	query := `
		SELECT pos.uuid, pos.name, pos.type, pos.organization_uuid, pos.current_person_uuid
		FROM positions pos
		JOIN approvers a ON a.position_uuid = pos.uuid
		WHERE a.step_uuid = ?
		ORDER BY pos.uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, stepUUID)
	if err != nil {
		r.logger.Error("Failed to get approvers", zap.String("step_uuid", stepUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approvers: %w", err)
	}
	defer rows.Close()

	var positions []entity.Position
	for rows.Next() {
		var pos entity.Position
		var orgUUID, personUUID sql.NullString
		if err := rows.Scan(&pos.UUID, &pos.Name, &pos.Type, &orgUUID, &personUUID); err != nil {
			return nil, fmt.Errorf("failed to scan approver position: %w", err)
		}
		if orgUUID.Valid {
			pos.OrganizationUUID = &orgUUID.String
		}
		if personUUID.Valid {
			pos.CurrentPersonUUID = &personUUID.String
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func scanStep(row rowScanner) (*entity.ApprovalStep, error) {
	var step entity.ApprovalStep
	var nextStepUUID sql.NullString

	err := row.Scan(&step.UUID, &step.Name, &step.AdvisorOrgUUID, &nextStepUUID)
	if err != nil {
		return nil, err
	}
	if nextStepUUID.Valid {
		step.NextStepUUID = &nextStepUUID.String
	}
	return &step, nil
}

// Verify interface compliance
var _ port.ApprovalStepRepository = (*ApprovalStepRepository)(nil)
