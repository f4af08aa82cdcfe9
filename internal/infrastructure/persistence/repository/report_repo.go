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

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

const reportColumns = `uuid, state, author_uuid, intent, text, key_outcomes, next_steps,
	engagement_date, cancelled_reason, advisor_org_uuid, principal_org_uuid,
	approval_step_uuid, released_at, created_at, updated_at`

// Create inserts a new report
func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		report.UUID,
		report.State,
		report.AuthorUUID,
		report.Intent,
		report.Text,
		report.KeyOutcomes,
		report.NextSteps,
		report.EngagementDate,
		report.CancelledReason,
		report.AdvisorOrgUUID,
		report.PrincipalOrgUUID,
		report.ApprovalStepUUID,
		report.ReleasedAt,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create report", zap.String("report_uuid", report.UUID), zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetByUUID retrieves a report by UUID; (nil, nil) when it does not exist.
// Related collections are loaded separately.
func (r *ReportRepository) GetByUUID(ctx context.Context, uuid string) (*entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE uuid = ?`

	report, err := scanReport(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get report", zap.String("report_uuid", uuid), zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// Update persists the report's scalar fields
func (r *ReportRepository) Update(ctx context.Context, report *entity.Report) error {
	query := `
		UPDATE reports SET
			state = ?, intent = ?, text = ?, key_outcomes = ?, next_steps = ?,
			engagement_date = ?, cancelled_reason = ?, advisor_org_uuid = ?,
			principal_org_uuid = ?, approval_step_uuid = ?, released_at = ?,
			updated_at = ?
		WHERE uuid = ?
	`

	report.UpdatedAt = time.Now()
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		report.State,
		report.Intent,
		report.Text,
		report.KeyOutcomes,
		report.NextSteps,
		report.EngagementDate,
		report.CancelledReason,
		report.AdvisorOrgUUID,
		report.PrincipalOrgUUID,
		report.ApprovalStepUUID,
		report.ReleasedAt,
		report.UpdatedAt,
		report.UUID,
	)
	if err != nil {
		r.logger.Error("Failed to update report", zap.String("report_uuid", report.UUID), zap.Error(err))
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

// Delete removes a report; association rows cascade via foreign keys.
func (r *ReportRepository) Delete(ctx context.Context, uuid string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM reports WHERE uuid = ?`, uuid)
	if err != nil {
		r.logger.Error("Failed to delete report", zap.String("report_uuid", uuid), zap.Error(err))
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return nil
}

// List retrieves reports with pagination, newest first
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// GetAttendees returns the attendee association rows for a report
func (r *ReportRepository) GetAttendees(ctx context.Context, reportUUID string) ([]entity.ReportPerson, error) {
	query := `
		SELECT person_uuid, role, is_primary
		FROM report_people
		WHERE report_uuid = ?
		ORDER BY person_uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get attendees", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get attendees: %w", err)
	}
	defer rows.Close()

	var attendees []entity.ReportPerson
	for rows.Next() {
		var a entity.ReportPerson
		if err := rows.Scan(&a.PersonUUID, &a.Role, &a.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// AddAttendee attaches a person to a report
func (r *ReportRepository) AddAttendee(ctx context.Context, reportUUID string, attendee entity.ReportPerson) error {
	query := `INSERT INTO report_people (report_uuid, person_uuid, role, is_primary) VALUES (?, ?, ?, ?)`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		reportUUID, attendee.PersonUUID, attendee.Role, attendee.IsPrimary)
	if err != nil {
		r.logger.Error("Failed to add attendee",
			zap.String("report_uuid", reportUUID),
			zap.String("person_uuid", attendee.PersonUUID),
			zap.Error(err))
		return fmt.Errorf("failed to add attendee: %w", err)
	}
	return nil
}

// UpdateAttendee updates the mutable flags of an attendee association
func (r *ReportRepository) UpdateAttendee(ctx context.Context, reportUUID string, attendee entity.ReportPerson) error {
	query := `UPDATE report_people SET role = ?, is_primary = ? WHERE report_uuid = ? AND person_uuid = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		attendee.Role, attendee.IsPrimary, reportUUID, attendee.PersonUUID)
	if err != nil {
		r.logger.Error("Failed to update attendee",
			zap.String("report_uuid", reportUUID),
			zap.String("person_uuid", attendee.PersonUUID),
			zap.Error(err))
		return fmt.Errorf("failed to update attendee: %w", err)
	}
	return nil
}

// RemoveAttendee detaches a person from a report
func (r *ReportRepository) RemoveAttendee(ctx context.Context, reportUUID string, personUUID string) error {
	query := `DELETE FROM report_people WHERE report_uuid = ? AND person_uuid = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, reportUUID, personUUID)
	if err != nil {
		r.logger.Error("Failed to remove attendee",
			zap.String("report_uuid", reportUUID),
			zap.String("person_uuid", personUUID),
			zap.Error(err))
		return fmt.Errorf("failed to remove attendee: %w", err)
	}
	return nil
}

// GetTasks returns the tasks associated with a report
func (r *ReportRepository) GetTasks(ctx context.Context, reportUUID string) ([]entity.Task, error) {
	query := `
		SELECT t.uuid, t.short_name, t.long_name
		FROM tasks t
		JOIN report_tasks rt ON rt.task_uuid = t.uuid
		WHERE rt.report_uuid = ?
		ORDER BY t.uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get tasks", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	var tasks []entity.Task
	for rows.Next() {
		var t entity.Task
		var longName sql.NullString
		if err := rows.Scan(&t.UUID, &t.ShortName, &longName); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.LongName = longName.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// AddTask associates a task with a report
func (r *ReportRepository) AddTask(ctx context.Context, reportUUID string, taskUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO report_tasks (report_uuid, task_uuid) VALUES (?, ?)`, reportUUID, taskUUID)
	if err != nil {
		r.logger.Error("Failed to add task",
			zap.String("report_uuid", reportUUID), zap.String("task_uuid", taskUUID), zap.Error(err))
		return fmt.Errorf("failed to add task: %w", err)
	}
	return nil
}

// RemoveTask dissociates a task from a report
func (r *ReportRepository) RemoveTask(ctx context.Context, reportUUID string, taskUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM report_tasks WHERE report_uuid = ? AND task_uuid = ?`, reportUUID, taskUUID)
	if err != nil {
		r.logger.Error("Failed to remove task",
			zap.String("report_uuid", reportUUID), zap.String("task_uuid", taskUUID), zap.Error(err))
		return fmt.Errorf("failed to remove task: %w", err)
	}
	return nil
}

// GetTags returns the tags associated with a report
func (r *ReportRepository) GetTags(ctx context.Context, reportUUID string) ([]entity.Tag, error) {
	query := `
		SELECT t.uuid, t.name, t.description
		FROM tags t
		JOIN report_tags rt ON rt.tag_uuid = t.uuid
		WHERE rt.report_uuid = ?
		ORDER BY t.uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get tags", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	defer rows.Close()

	var tags []entity.Tag
	for rows.Next() {
		var t entity.Tag
		var description sql.NullString
		if err := rows.Scan(&t.UUID, &t.Name, &description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		t.Description = description.String
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AddTag associates a tag with a report
func (r *ReportRepository) AddTag(ctx context.Context, reportUUID string, tagUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO report_tags (report_uuid, tag_uuid) VALUES (?, ?)`, reportUUID, tagUUID)
	if err != nil {
		r.logger.Error("Failed to add tag",
			zap.String("report_uuid", reportUUID), zap.String("tag_uuid", tagUUID), zap.Error(err))
		return fmt.Errorf("failed to add tag: %w", err)
	}
	return nil
}

// RemoveTag dissociates a tag from a report
func (r *ReportRepository) RemoveTag(ctx context.Context, reportUUID string, tagUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM report_tags WHERE report_uuid = ? AND tag_uuid = ?`, reportUUID, tagUUID)
	if err != nil {
		r.logger.Error("Failed to remove tag",
			zap.String("report_uuid", reportUUID), zap.String("tag_uuid", tagUUID), zap.Error(err))
		return fmt.Errorf("failed to remove tag: %w", err)
	}
	return nil
}

// GetAuthorizationGroups returns the authorization groups associated with a report
func (r *ReportRepository) GetAuthorizationGroups(ctx context.Context, reportUUID string) ([]entity.AuthorizationGroup, error) {
	query := `
		SELECT g.uuid, g.name, g.description
		FROM authorization_groups g
		JOIN report_authorization_groups rg ON rg.group_uuid = g.uuid
		WHERE rg.report_uuid = ?
		ORDER BY g.uuid
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, reportUUID)
	if err != nil {
		r.logger.Error("Failed to get authorization groups", zap.String("report_uuid", reportUUID), zap.Error(err))
		return nil, fmt.Errorf("failed to get authorization groups: %w", err)
	}
	defer rows.Close()

	var groups []entity.AuthorizationGroup
	for rows.Next() {
		var g entity.AuthorizationGroup
		var description sql.NullString
		if err := rows.Scan(&g.UUID, &g.Name, &description); err != nil {
			return nil, fmt.Errorf("failed to scan authorization group: %w", err)
		}
		g.Description = description.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// AddAuthorizationGroup associates an authorization group with a report
func (r *ReportRepository) AddAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO report_authorization_groups (report_uuid, group_uuid) VALUES (?, ?)`, reportUUID, groupUUID)
	if err != nil {
		r.logger.Error("Failed to add authorization group",
			zap.String("report_uuid", reportUUID), zap.String("group_uuid", groupUUID), zap.Error(err))
		return fmt.Errorf("failed to add authorization group: %w", err)
	}
	return nil
}

// RemoveAuthorizationGroup dissociates an authorization group from a report
func (r *ReportRepository) RemoveAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM report_authorization_groups WHERE report_uuid = ? AND group_uuid = ?`, reportUUID, groupUUID)
	if err != nil {
		r.logger.Error("Failed to remove authorization group",
			zap.String("report_uuid", reportUUID), zap.String("group_uuid", groupUUID), zap.Error(err))
		return fmt.Errorf("failed to remove authorization group: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*entity.Report, error) {
	var report entity.Report
	var engagementDate, releasedAt sql.NullTime
	var cancelledReason, advisorOrg, principalOrg, approvalStep sql.NullString
	var keyOutcomes, nextSteps sql.NullString

	err := row.Scan(
		&report.UUID,
		&report.State,
		&report.AuthorUUID,
		&report.Intent,
		&report.Text,
		&keyOutcomes,
		&nextSteps,
		&engagementDate,
		&cancelledReason,
		&advisorOrg,
		&principalOrg,
		&approvalStep,
		&releasedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.KeyOutcomes = keyOutcomes.String
	report.NextSteps = nextSteps.String
	if engagementDate.Valid {
		report.EngagementDate = &engagementDate.Time
	}
	if releasedAt.Valid {
		report.ReleasedAt = &releasedAt.Time
	}
	if cancelledReason.Valid {
		report.CancelledReason = &cancelledReason.String
	}
	if advisorOrg.Valid {
		report.AdvisorOrgUUID = &advisorOrg.String
	}
	if principalOrg.Valid {
		report.PrincipalOrgUUID = &principalOrg.String
	}
	if approvalStep.Valid {
		report.ApprovalStepUUID = &approvalStep.String
	}
	return &report, nil
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
