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

// OrganizationRepository implements port.OrganizationRepository
type OrganizationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB, logger *zap.Logger) port.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

const organizationColumns = `uuid, short_name, long_name, type, parent_uuid, created_at, updated_at`

// GetByUUID retrieves an organization; (nil, nil) when it does not exist.
func (r *OrganizationRepository) GetByUUID(ctx context.Context, uuid string) (*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE uuid = ?`

	org, err := scanOrganization(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get organization", zap.String("org_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// GetForPerson resolves the organization of the person's current position.
// Returns (nil, nil) when the person holds no position or the position is
// unattached.
func (r *OrganizationRepository) GetForPerson(ctx context.Context, personUUID string) (*entity.Organization, error) {
	query := `
		SELECT o.uuid, o.short_name, o.long_name, o.type, o.parent_uuid, o.created_at, o.updated_at
		FROM organizations o
		JOIN positions pos ON pos.organization_uuid = o.uuid
		JOIN people p ON p.position_uuid = pos.uuid
		WHERE p.uuid = ?
	`

	org, err := scanOrganization(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, personUUID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get organization for person", zap.String("person_uuid", personUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get organization for person: %w", err)
	}
	return org, nil
}

func scanOrganization(row rowScanner) (*entity.Organization, error) {
	var org entity.Organization
	var longName, parentUUID sql.NullString

	err := row.Scan(
		&org.UUID,
		&org.ShortName,
		&longName,
		&org.Type,
		&parentUUID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	org.LongName = longName.String
	if parentUUID.Valid {
		org.ParentUUID = &parentUUID.String
	}
	return &org, nil
}

// Verify interface compliance
var _ port.OrganizationRepository = (*OrganizationRepository)(nil)
