package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/domain/reconcile"
	"github.com/advisornet/reportd/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ReportService owns the report lifecycle: creation, the edit reconciliation
// transaction, submission into the approval chain, approve/reject decisions,
// deletion and comments.
type ReportService interface {
	Create(ctx context.Context, author *entity.Person, r *entity.Report) (*entity.Report, error)
	// Edit applies the submitted report inside one transaction and returns
	// the pre-edit snapshot.
	Edit(ctx context.Context, editor *entity.Person, r *entity.Report) (*entity.Report, error)
	Submit(ctx context.Context, user *entity.Person, reportUUID string) (*entity.Report, error)
	Approve(ctx context.Context, approver *entity.Person, reportUUID, commentText string) (*entity.Report, error)
	Reject(ctx context.Context, approver *entity.Person, reportUUID, commentText string) (*entity.Report, error)
	Delete(ctx context.Context, user *entity.Person, reportUUID string) error
	Get(ctx context.Context, reportUUID string) (*entity.Report, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Report, error)

	AddComment(ctx context.Context, author *entity.Person, reportUUID, text string) (*entity.Comment, error)
	ListComments(ctx context.Context, reportUUID string) ([]*entity.Comment, error)
	DeleteComment(ctx context.Context, user *entity.Person, commentUUID string) error
}

type reportService struct {
	reports   port.ReportRepository
	people    port.PersonRepository
	orgs      port.OrganizationRepository
	steps     port.ApprovalStepRepository
	actions   port.ApprovalActionRepository
	comments  port.CommentRepository
	txManager port.TransactionManager
	resolver  *ChainResolver
	notifier  port.Notifier
	audit     port.AuditLogger
	sanitizer port.TextSanitizer
	logger    Logger

	// defaultOrgUUID is the fallback organization whose chain is used when
	// the author holds no position.
	defaultOrgUUID string

	// now is injectable for the end-of-day future cutoff.
	now func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(
	reports port.ReportRepository,
	people port.PersonRepository,
	orgs port.OrganizationRepository,
	steps port.ApprovalStepRepository,
	actions port.ApprovalActionRepository,
	comments port.CommentRepository,
	txManager port.TransactionManager,
	resolver *ChainResolver,
	notifier port.Notifier,
	audit port.AuditLogger,
	sanitizer port.TextSanitizer,
	defaultOrgUUID string,
	logger Logger,
) ReportService {
	return &reportService{
		reports:        reports,
		people:         people,
		orgs:           orgs,
		steps:          steps,
		actions:        actions,
		comments:       comments,
		txManager:      txManager,
		resolver:       resolver,
		notifier:       notifier,
		audit:          audit,
		sanitizer:      sanitizer,
		defaultOrgUUID: defaultOrgUUID,
		logger:         logger,
		now:            time.Now,
	}
}

// endOfToday returns 23:59:59 local of the current day. Engagements strictly
// after it are "future".
func (s *reportService) endOfToday() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
}

// shouldBeFuture reports whether the engagement is beyond the end-of-day
// cutoff and not cancelled.
func (s *reportService) shouldBeFuture(r *entity.Report) bool {
	return r.EngagementDate != nil && r.EngagementDate.After(s.endOfToday()) && !r.IsCancelled()
}

// Create persists a new report in DRAFT, or FUTURE when the engagement is
// beyond the cutoff and not cancelled.
func (s *reportService) Create(ctx context.Context, author *entity.Person, r *entity.Report) (*entity.Report, error) {
	if author == nil {
		return nil, fmt.Errorf("%w: missing author", ErrValidation)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: missing report payload", ErrValidation)
	}

	r.UUID = uuid.NewString()
	r.AuthorUUID = author.UUID
	r.State = workflow.StateDraft.String()
	r.ApprovalStepUUID = nil
	r.ReleasedAt = nil

	if err := s.deriveOrganizations(ctx, r); err != nil {
		return nil, err
	}
	if s.shouldBeFuture(r) {
		r.State = workflow.StateFuture.String()
	}
	r.Text = s.sanitizer.Sanitize(r.Text)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reports.Create(txCtx, r); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		for _, a := range r.Attendees {
			if err := s.reports.AddAttendee(txCtx, r.UUID, a); err != nil {
				return fmt.Errorf("add attendee: %w", err)
			}
		}
		for _, t := range r.Tasks {
			if err := s.reports.AddTask(txCtx, r.UUID, t.UUID); err != nil {
				return fmt.Errorf("add task: %w", err)
			}
		}
		for _, t := range r.Tags {
			if err := s.reports.AddTag(txCtx, r.UUID, t.UUID); err != nil {
				return fmt.Errorf("add tag: %w", err)
			}
		}
		for _, g := range r.AuthorizationGroups {
			if err := s.reports.AddAuthorizationGroup(txCtx, r.UUID, g.UUID); err != nil {
				return fmt.Errorf("add authorization group: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create report", "error", err, "author_uuid", author.UUID)
		return nil, err
	}

	s.audit.Record(ctx, "report.created", r.UUID, author.UUID, "")
	s.logger.Info("Report created", "report_uuid", r.UUID, "state", r.State)
	return r, nil
}

// Edit performs the whole edit reconciliation inside one transaction and
// returns the report as it was stored before the edit. Callers use the
// snapshot to decide whether an edited notification is warranted.
func (s *reportService) Edit(ctx context.Context, editor *entity.Person, r *entity.Report) (*entity.Report, error) {
	if editor == nil {
		return nil, fmt.Errorf("%w: missing editor", ErrValidation)
	}
	if r == nil || r.UUID == "" {
		return nil, fmt.Errorf("%w: missing report uuid", ErrValidation)
	}

	var existing *entity.Report
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		existing, err = s.reports.GetByUUID(txCtx, r.UUID)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("%w: report %s", ErrNotFound, r.UUID)
		}
		existing.Attendees, err = s.reports.GetAttendees(txCtx, r.UUID)
		if err != nil {
			return fmt.Errorf("load attendees: %w", err)
		}

		// Server-authoritative fields the client must not override.
		r.State = existing.State
		r.ApprovalStepUUID = existing.ApprovalStepUUID
		r.AuthorUUID = existing.AuthorUUID
		r.ReleasedAt = existing.ReleasedAt
		r.CreatedAt = existing.CreatedAt

		// May demote an author-edited pending report back to draft.
		if err := s.assertCanEdit(txCtx, r, editor); err != nil {
			return err
		}

		if err := s.recomputeOrganization(txCtx, r, existing, entity.RoleAdvisor); err != nil {
			return err
		}
		if err := s.recomputeOrganization(txCtx, r, existing, entity.RolePrincipal); err != nil {
			return err
		}

		switch {
		case workflow.State(r.State) == workflow.StateDraft && s.shouldBeFuture(r):
			r.State = workflow.StateFuture.String()
		case workflow.State(r.State) == workflow.StateFuture && (r.EngagementDate == nil || !r.EngagementDate.After(s.endOfToday())):
			// The engagement date moved back to now-or-past.
			r.State = workflow.StateDraft.String()
		case workflow.State(r.State) == workflow.StateFuture && r.IsCancelled():
			// Cancelled future engagements become draft.
			r.State = workflow.StateDraft.String()
		}

		r.Text = s.sanitizer.Sanitize(r.Text)

		if err := s.reports.Update(txCtx, r); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		return s.reconcileCollections(txCtx, r, existing)
	})
	if err != nil {
		s.logger.Error("Failed to edit report", "error", err, "report_uuid", r.UUID, "editor_uuid", editor.UUID)
		return nil, err
	}

	// Notify the author when an approver edited a report that was pending
	// before this edit.
	if workflow.State(existing.State) == workflow.StatePendingApproval && existing.ApprovalStepUUID != nil {
		canApprove, err := s.resolver.CanApprove(ctx, editor.UUID, *existing.ApprovalStepUUID)
		if err != nil {
			s.logger.Error("Failed to resolve editor approval rights for notification", "error", err, "report_uuid", r.UUID)
		} else if canApprove {
			s.notifyAuthor(ctx, existing, entity.NotificationReportEdited, editor.UUID, "")
		}
	}

	s.audit.Record(ctx, "report.edited", r.UUID, editor.UUID, "")
	s.logger.Info("Report edited", "report_uuid", r.UUID, "state", r.State)
	return existing, nil
}

// assertCanEdit verifies the editor may edit the report in its current state.
// In the author-edits-pending case the report is demoted to draft in place.
func (s *reportService) assertCanEdit(ctx context.Context, r *entity.Report, editor *entity.Person) error {
	switch workflow.State(r.State) {
	case workflow.StateDraft, workflow.StateRejected, workflow.StateFuture:
		if r.AuthorUUID != editor.UUID {
			return fmt.Errorf("%w: must be the author of this report", ErrForbidden)
		}
	case workflow.StatePendingApproval:
		if r.AuthorUUID == editor.UUID {
			// Self-withdrawal on edit.
			r.State = workflow.StateDraft.String()
			r.ApprovalStepUUID = nil
			return nil
		}
		if r.ApprovalStepUUID == nil {
			return fmt.Errorf("%w: report %s has no approval step", ErrNotPending, r.UUID)
		}
		canApprove, err := s.resolver.CanApprove(ctx, editor.UUID, *r.ApprovalStepUUID)
		if err != nil {
			return fmt.Errorf("resolve approver: %w", err)
		}
		if !canApprove {
			return fmt.Errorf("%w: must be the author or the current approver", ErrForbidden)
		}
	case workflow.StateReleased, workflow.StateCancelled:
		s.audit.Record(ctx, "report.edit_forbidden", r.UUID, editor.UUID, "attempt to edit a released report")
		return fmt.Errorf("%w: cannot edit a released report", ErrForbidden)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, r.State)
	}
	return nil
}

// recomputeOrganization keeps the existing org when the primary attendee for
// the role is unchanged and an org is already set; otherwise it re-derives
// the org from the new primary attendee's position.
func (s *reportService) recomputeOrganization(ctx context.Context, r, existing *entity.Report, role string) error {
	var existingOrg *string
	if role == entity.RoleAdvisor {
		existingOrg = existing.AdvisorOrgUUID
	} else {
		existingOrg = existing.PrincipalOrgUUID
	}

	submitted := r.PrimaryAttendee(role)
	previous := existing.PrimaryAttendee(role)

	var orgUUID *string
	switch {
	case submitted != nil && previous != nil && submitted.PersonUUID == previous.PersonUUID && existingOrg != nil:
		orgUUID = existingOrg
	case submitted == nil:
		orgUUID = nil
	default:
		org, err := s.orgs.GetForPerson(ctx, submitted.PersonUUID)
		if err != nil {
			return fmt.Errorf("resolve organization for %s: %w", submitted.PersonUUID, err)
		}
		if org != nil {
			orgUUID = &org.UUID
		}
	}

	if role == entity.RoleAdvisor {
		r.AdvisorOrgUUID = orgUUID
	} else {
		r.PrincipalOrgUUID = orgUUID
	}
	return nil
}

// reconcileCollections diffs each submitted collection against the persisted
// membership and issues minimal add/remove/update calls. A nil collection is
// left untouched.
func (s *reportService) reconcileCollections(ctx context.Context, r, existing *entity.Report) error {
	if r.Attendees != nil {
		d := reconcile.Compute(existing.Attendees, r.Attendees, func(old, submitted entity.ReportPerson) bool {
			return old.IsPrimary != submitted.IsPrimary || old.Role != submitted.Role
		})
		err := reconcile.Apply(d,
			func(a entity.ReportPerson) error { return s.reports.AddAttendee(ctx, r.UUID, a) },
			func(a entity.ReportPerson) error { return s.reports.RemoveAttendee(ctx, r.UUID, a.PersonUUID) },
			func(a entity.ReportPerson) error { return s.reports.UpdateAttendee(ctx, r.UUID, a) },
		)
		if err != nil {
			return fmt.Errorf("reconcile attendees: %w", err)
		}
	}

	if r.Tasks != nil {
		existingTasks, err := s.reports.GetTasks(ctx, r.UUID)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		d := reconcile.Compute(existingTasks, r.Tasks, nil)
		err = reconcile.Apply(d,
			func(t entity.Task) error { return s.reports.AddTask(ctx, r.UUID, t.UUID) },
			func(t entity.Task) error { return s.reports.RemoveTask(ctx, r.UUID, t.UUID) },
			nil,
		)
		if err != nil {
			return fmt.Errorf("reconcile tasks: %w", err)
		}
	}

	if r.Tags != nil {
		existingTags, err := s.reports.GetTags(ctx, r.UUID)
		if err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
		d := reconcile.Compute(existingTags, r.Tags, nil)
		err = reconcile.Apply(d,
			func(t entity.Tag) error { return s.reports.AddTag(ctx, r.UUID, t.UUID) },
			func(t entity.Tag) error { return s.reports.RemoveTag(ctx, r.UUID, t.UUID) },
			nil,
		)
		if err != nil {
			return fmt.Errorf("reconcile tags: %w", err)
		}
	}

	if r.AuthorizationGroups != nil {
		existingGroups, err := s.reports.GetAuthorizationGroups(ctx, r.UUID)
		if err != nil {
			return fmt.Errorf("load authorization groups: %w", err)
		}
		d := reconcile.Compute(existingGroups, r.AuthorizationGroups, nil)
		err = reconcile.Apply(d,
			func(g entity.AuthorizationGroup) error { return s.reports.AddAuthorizationGroup(ctx, r.UUID, g.UUID) },
			func(g entity.AuthorizationGroup) error { return s.reports.RemoveAuthorizationGroup(ctx, r.UUID, g.UUID) },
			nil,
		)
		if err != nil {
			return fmt.Errorf("reconcile authorization groups: %w", err)
		}
	}

	return nil
}

// Submit moves a report into PENDING_APPROVAL at the first step of the
// responsible organization's chain. Submitting an already-pending report is
// a fresh submission that recomputes the step from scratch.
func (s *reportService) Submit(ctx context.Context, user *entity.Person, reportUUID string) (*entity.Report, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: missing user", ErrValidation)
	}

	var report *entity.Report
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := s.reports.GetByUUID(txCtx, reportUUID)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}
		if r == nil {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportUUID)
		}
		if !workflow.CanFire(workflow.State(r.State), workflow.TriggerSubmit) {
			return fmt.Errorf("%w: cannot submit a %s report", ErrInvalidState, r.State)
		}

		r.Attendees, err = s.reports.GetAttendees(txCtx, reportUUID)
		if err != nil {
			return fmt.Errorf("load attendees: %w", err)
		}
		if err := s.deriveOrganizations(txCtx, r); err != nil {
			return err
		}
		if r.AdvisorOrgUUID == nil {
			return fmt.Errorf("%w: no primary %s attendee", ErrMissingPrimaryAttendee, entity.RoleAdvisor)
		}
		if r.PrincipalOrgUUID == nil {
			return fmt.Errorf("%w: no primary %s attendee", ErrMissingPrimaryAttendee, entity.RolePrincipal)
		}

		if r.EngagementDate == nil {
			return fmt.Errorf("%w: missing engagement date", ErrValidation)
		}
		if r.EngagementDate.After(s.endOfToday()) && !r.IsCancelled() {
			return ErrInvalidEngagementDate
		}

		chainOrg, err := s.chainOrganization(txCtx, r.AuthorUUID)
		if err != nil {
			return err
		}
		chain, err := s.resolver.ResolveChain(txCtx, chainOrg)
		if err != nil {
			return err
		}

		r.ApprovalStepUUID = &chain[0].UUID
		r.State = workflow.StatePendingApproval.String()
		if err := s.reports.Update(txCtx, r); err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		report = r
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit report", "error", err, "report_uuid", reportUUID, "user_uuid", user.UUID)
		return nil, err
	}

	s.audit.Record(ctx, "report.submitted", report.UUID, user.UUID, "")
	s.logger.Info("Report submitted", "report_uuid", report.UUID, "step_uuid", *report.ApprovalStepUUID)
	s.notifyApprovers(ctx, report)
	return report, nil
}

// deriveOrganizations fills missing advisor/principal orgs from the primary
// attendees' positions. Missing primaries are left as nil orgs; callers
// decide whether that is an error.
func (s *reportService) deriveOrganizations(ctx context.Context, r *entity.Report) error {
	if r.AdvisorOrgUUID == nil {
		if p := r.PrimaryAttendee(entity.RoleAdvisor); p != nil {
			org, err := s.orgs.GetForPerson(ctx, p.PersonUUID)
			if err != nil {
				return fmt.Errorf("resolve advisor organization: %w", err)
			}
			if org != nil {
				r.AdvisorOrgUUID = &org.UUID
			}
		}
	}
	if r.PrincipalOrgUUID == nil {
		if p := r.PrimaryAttendee(entity.RolePrincipal); p != nil {
			org, err := s.orgs.GetForPerson(ctx, p.PersonUUID)
			if err != nil {
				return fmt.Errorf("resolve principal organization: %w", err)
			}
			if org != nil {
				r.PrincipalOrgUUID = &org.UUID
			}
		}
	}
	return nil
}

// chainOrganization picks the organization whose approval chain governs the
// report: the author's own org, falling back to the configured default.
func (s *reportService) chainOrganization(ctx context.Context, authorUUID string) (string, error) {
	org, err := s.orgs.GetForPerson(ctx, authorUUID)
	if err != nil {
		return "", fmt.Errorf("resolve author organization: %w", err)
	}
	if org != nil {
		return org.UUID, nil
	}
	if s.defaultOrgUUID == "" {
		return "", fmt.Errorf("%w: author has no organization and no default is configured", ErrNoApprovalChain)
	}
	return s.defaultOrgUUID, nil
}

// Approve records an APPROVE action and advances the report along its chain.
// When the chain is exhausted the report is released (or cancelled when a
// cancellation reason is set) and stamped with the release time.
func (s *reportService) Approve(ctx context.Context, approver *entity.Person, reportUUID, commentText string) (*entity.Report, error) {
	if approver == nil {
		return nil, fmt.Errorf("%w: missing approver", ErrValidation)
	}

	var report *entity.Report
	var released bool
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, step, err := s.loadPending(txCtx, reportUUID, approver)
		if err != nil {
			return err
		}

		action := &entity.ApprovalAction{
			ReportUUID: r.UUID,
			StepUUID:   step.UUID,
			PersonUUID: approver.UUID,
			Type:       entity.ActionApprove,
			CreatedAt:  s.now(),
		}
		if err := s.actions.Create(txCtx, action); err != nil {
			return fmt.Errorf("record approval: %w", err)
		}

		r.ApprovalStepUUID = step.NextStepUUID
		if step.NextStepUUID == nil {
			// Chain exhausted.
			if r.IsCancelled() {
				r.State = workflow.StateCancelled.String()
			} else {
				r.State = workflow.StateReleased.String()
			}
			releasedAt := s.now()
			r.ReleasedAt = &releasedAt
			released = true
		}
		if err := s.reports.Update(txCtx, r); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		if text := strings.TrimSpace(commentText); text != "" {
			comment := &entity.Comment{
				UUID:       uuid.NewString(),
				ReportUUID: r.UUID,
				AuthorUUID: approver.UUID,
				Text:       text,
				CreatedAt:  s.now(),
			}
			if err := s.comments.Create(txCtx, comment); err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}

		report = r
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to approve report", "error", err, "report_uuid", reportUUID, "approver_uuid", approver.UUID)
		return nil, err
	}

	s.audit.Record(ctx, "report.approved", report.UUID, approver.UUID, "")
	if released {
		s.logger.Info("Report released", "report_uuid", report.UUID, "state", report.State)
		s.notifyAuthor(ctx, report, entity.NotificationReportReleased, approver.UUID, "")
	} else {
		s.logger.Info("Report advanced to next approval step",
			"report_uuid", report.UUID, "step_uuid", *report.ApprovalStepUUID)
		s.notifyApprovers(ctx, report)
	}
	return report, nil
}

// Reject records a REJECT action, clears the approval step and returns the
// report to its author as REJECTED. The rejection comment is mandatory.
func (s *reportService) Reject(ctx context.Context, approver *entity.Person, reportUUID, commentText string) (*entity.Report, error) {
	if approver == nil {
		return nil, fmt.Errorf("%w: missing approver", ErrValidation)
	}
	text := strings.TrimSpace(commentText)
	if text == "" {
		return nil, fmt.Errorf("%w: rejection comment is required", ErrValidation)
	}

	var report *entity.Report
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, step, err := s.loadPending(txCtx, reportUUID, approver)
		if err != nil {
			return err
		}

		action := &entity.ApprovalAction{
			ReportUUID: r.UUID,
			StepUUID:   step.UUID,
			PersonUUID: approver.UUID,
			Type:       entity.ActionReject,
			CreatedAt:  s.now(),
		}
		if err := s.actions.Create(txCtx, action); err != nil {
			return fmt.Errorf("record rejection: %w", err)
		}

		r.ApprovalStepUUID = nil
		r.State = workflow.StateRejected.String()
		if err := s.reports.Update(txCtx, r); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		comment := &entity.Comment{
			UUID:       uuid.NewString(),
			ReportUUID: r.UUID,
			AuthorUUID: approver.UUID,
			Text:       text,
			CreatedAt:  s.now(),
		}
		if err := s.comments.Create(txCtx, comment); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		report = r
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to reject report", "error", err, "report_uuid", reportUUID, "approver_uuid", approver.UUID)
		return nil, err
	}

	s.audit.Record(ctx, "report.rejected", report.UUID, approver.UUID, text)
	s.logger.Info("Report rejected", "report_uuid", report.UUID)
	s.notifyAuthor(ctx, report, entity.NotificationReportRejected, approver.UUID, text)
	return report, nil
}

// loadPending loads the report and its current step and verifies the
// approver may act on it. The step is always taken from the report as
// persisted at transaction start, never from caller input.
func (s *reportService) loadPending(ctx context.Context, reportUUID string, approver *entity.Person) (*entity.Report, *entity.ApprovalStep, error) {
	r, err := s.reports.GetByUUID(ctx, reportUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("load report: %w", err)
	}
	if r == nil {
		return nil, nil, fmt.Errorf("%w: report %s", ErrNotFound, reportUUID)
	}
	if workflow.State(r.State) != workflow.StatePendingApproval || r.ApprovalStepUUID == nil {
		return nil, nil, fmt.Errorf("%w: report %s", ErrNotPending, reportUUID)
	}
	step, err := s.steps.GetByUUID(ctx, *r.ApprovalStepUUID)
	if err != nil {
		return nil, nil, fmt.Errorf("load approval step: %w", err)
	}
	if step == nil {
		return nil, nil, fmt.Errorf("%w: approval step %s no longer exists", ErrNotPending, *r.ApprovalStepUUID)
	}
	canApprove, err := s.resolver.CanApprove(ctx, approver.UUID, step.UUID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve approver: %w", err)
	}
	if !canApprove {
		return nil, nil, fmt.Errorf("%w: not an approver for the current step", ErrForbidden)
	}
	return r, step, nil
}

// Delete removes a report. Authors may delete DRAFT and REJECTED reports;
// administrators may delete any report.
func (s *reportService) Delete(ctx context.Context, user *entity.Person, reportUUID string) error {
	if user == nil {
		return fmt.Errorf("%w: missing user", ErrValidation)
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := s.reports.GetByUUID(txCtx, reportUUID)
		if err != nil {
			return fmt.Errorf("load report: %w", err)
		}
		if r == nil {
			return fmt.Errorf("%w: report %s", ErrNotFound, reportUUID)
		}
		if !user.IsAdmin() {
			state := workflow.State(r.State)
			if (state != workflow.StateDraft && state != workflow.StateRejected) || r.AuthorUUID != user.UUID {
				return fmt.Errorf("%w: you cannot delete this report", ErrForbidden)
			}
		}
		return s.reports.Delete(txCtx, reportUUID)
	})
	if err != nil {
		s.logger.Error("Failed to delete report", "error", err, "report_uuid", reportUUID, "user_uuid", user.UUID)
		return err
	}

	s.audit.Record(ctx, "report.deleted", reportUUID, user.UUID, "")
	s.logger.Info("Report deleted", "report_uuid", reportUUID)
	return nil
}

// Get retrieves a report with its related collections.
func (s *reportService) Get(ctx context.Context, reportUUID string) (*entity.Report, error) {
	r, err := s.reports.GetByUUID(ctx, reportUUID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportUUID)
	}
	if r.Attendees, err = s.reports.GetAttendees(ctx, reportUUID); err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	if r.Tasks, err = s.reports.GetTasks(ctx, reportUUID); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if r.Tags, err = s.reports.GetTags(ctx, reportUUID); err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	if r.AuthorizationGroups, err = s.reports.GetAuthorizationGroups(ctx, reportUUID); err != nil {
		return nil, fmt.Errorf("load authorization groups: %w", err)
	}
	return r, nil
}

// List retrieves a paginated list of reports.
func (s *reportService) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	reports, err := s.reports.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err, "limit", limit, "offset", offset)
		return nil, err
	}
	return reports, nil
}

// AddComment appends a comment to a report and notifies the author.
func (s *reportService) AddComment(ctx context.Context, author *entity.Person, reportUUID, text string) (*entity.Comment, error) {
	if author == nil {
		return nil, fmt.Errorf("%w: missing author", ErrValidation)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	r, err := s.reports.GetByUUID(ctx, reportUUID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportUUID)
	}

	comment := &entity.Comment{
		UUID:       uuid.NewString(),
		ReportUUID: reportUUID,
		AuthorUUID: author.UUID,
		Text:       text,
		CreatedAt:  s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("Failed to create comment", "error", err, "report_uuid", reportUUID)
		return nil, err
	}

	s.notifyAuthor(ctx, r, entity.NotificationNewComment, author.UUID, text)
	return comment, nil
}

// ListComments returns all comments for a report, oldest first.
func (s *reportService) ListComments(ctx context.Context, reportUUID string) ([]*entity.Comment, error) {
	return s.comments.GetByReportUUID(ctx, reportUUID)
}

// DeleteComment removes a comment. Administrators only.
func (s *reportService) DeleteComment(ctx context.Context, user *entity.Person, commentUUID string) error {
	if user == nil || !user.IsAdmin() {
		return fmt.Errorf("%w: only administrators may delete comments", ErrForbidden)
	}
	c, err := s.comments.GetByUUID(ctx, commentUUID)
	if err != nil {
		return fmt.Errorf("load comment: %w", err)
	}
	if c == nil {
		return fmt.Errorf("%w: comment %s", ErrNotFound, commentUUID)
	}
	return s.comments.Delete(ctx, commentUUID)
}

// notifyApprovers sends an approval-needed notification to the people
// holding the current step's approver positions. Failures are logged only.
func (s *reportService) notifyApprovers(ctx context.Context, r *entity.Report) {
	if r.ApprovalStepUUID == nil {
		return
	}
	positions, err := s.steps.GetApprovers(ctx, *r.ApprovalStepUUID)
	if err != nil {
		s.logger.Error("Failed to load approvers for notification", "error", err, "report_uuid", r.UUID)
		return
	}
	var personUUIDs []string
	for _, p := range positions {
		if p.CurrentPersonUUID != nil {
			personUUIDs = append(personUUIDs, *p.CurrentPersonUUID)
		}
	}
	if len(personUUIDs) == 0 {
		s.logger.Info("Approval step has no filled approver positions", "step_uuid", *r.ApprovalStepUUID)
		return
	}
	approvers, err := s.people.GetByUUIDs(ctx, personUUIDs)
	if err != nil {
		s.logger.Error("Failed to load approver people for notification", "error", err, "report_uuid", r.UUID)
		return
	}
	var recipients []string
	for _, p := range approvers {
		if p.EmailAddress != "" {
			recipients = append(recipients, p.EmailAddress)
		}
	}
	s.notifier.Send(ctx, port.Notification{
		Type:       entity.NotificationApprovalNeeded,
		ReportUUID: r.UUID,
		Recipients: recipients,
	})
}

// notifyAuthor sends a notification of the given type to the report author.
// Failures are logged only.
func (s *reportService) notifyAuthor(ctx context.Context, r *entity.Report, notificationType, actorUUID, body string) {
	author, err := s.people.GetByUUID(ctx, r.AuthorUUID)
	if err != nil || author == nil {
		s.logger.Error("Failed to load author for notification", "error", err, "report_uuid", r.UUID)
		return
	}
	var recipients []string
	if author.EmailAddress != "" {
		recipients = append(recipients, author.EmailAddress)
	}
	s.notifier.Send(ctx, port.Notification{
		Type:       notificationType,
		ReportUUID: r.UUID,
		ActorUUID:  actorUUID,
		Recipients: recipients,
		Body:       body,
	})
}
