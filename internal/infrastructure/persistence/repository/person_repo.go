package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// PersonRepository implements port.PersonRepository
type PersonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *sql.DB, logger *zap.Logger) port.PersonRepository {
	return &PersonRepository{
		db:     db,
		logger: logger,
	}
}

const personQuery = `
	SELECT p.uuid, p.name, p.role, p.email_address, p.position_uuid,
		p.created_at, p.updated_at,
		pos.uuid, pos.name, pos.type, pos.organization_uuid, pos.current_person_uuid
	FROM people p
	LEFT JOIN positions pos ON pos.uuid = p.position_uuid
`

// GetByUUID retrieves a person with their current position; (nil, nil) when
// the person does not exist.
func (r *PersonRepository) GetByUUID(ctx context.Context, uuid string) (*entity.Person, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, personQuery+` WHERE p.uuid = ?`, uuid)
	if err != nil {
		r.logger.Error("Failed to get person", zap.String("person_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	person, err := scanPerson(rows)
	if err != nil {
		r.logger.Error("Failed to scan person", zap.String("person_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	return person, nil
}

// GetByUUIDs retrieves people by UUID in one query. Unknown UUIDs are
// silently absent from the result.
func (r *PersonRepository) GetByUUIDs(ctx context.Context, uuids []string) ([]*entity.Person, error) {
	if len(uuids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(uuids)), ",")
	args := make([]interface{}, len(uuids))
	for i, u := range uuids {
		args[i] = u
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		personQuery+` WHERE p.uuid IN (`+placeholders+`)`, args...)
	if err != nil {
		r.logger.Error("Failed to get people", zap.Int("count", len(uuids)), zap.Error(err))
		return nil, fmt.Errorf("failed to get people: %w", err)
	}
	defer rows.Close()

	var people []*entity.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, person)
	}
	return people, rows.Err()
}

func scanPerson(rows *sql.Rows) (*entity.Person, error) {
	var person entity.Person
	var positionUUID sql.NullString
	var posUUID, posName, posType, posOrgUUID, posPersonUUID sql.NullString

	err := rows.Scan(
		&person.UUID,
		&person.Name,
		&person.Role,
		&person.EmailAddress,
		&positionUUID,
		&person.CreatedAt,
		&person.UpdatedAt,
		&posUUID,
		&posName,
		&posType,
		&posOrgUUID,
		&posPersonUUID,
	)
	if err != nil {
		return nil, err
	}

	if positionUUID.Valid {
		person.PositionUUID = &positionUUID.String
	}
	if posUUID.Valid {
		position := &entity.Position{
			UUID: posUUID.String,
			Name: posName.String,
			Type: posType.String,
		}
		if posOrgUUID.Valid {
			position.OrganizationUUID = &posOrgUUID.String
		}
		if posPersonUUID.Valid {
			position.CurrentPersonUUID = &posPersonUUID.String
		}
		person.Position = position
	}
	return &person, nil
}

// Verify interface compliance
var _ port.PersonRepository = (*PersonRepository)(nil)
