package service

import (
	"context"
	"testing"
	"time"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/advisornet/reportd/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repositories

type mockReportRepo struct {
	getByUUIDFunc    func(ctx context.Context, uuid string) (*entity.Report, error)
	getAttendeesFunc func(ctx context.Context, reportUUID string) ([]entity.ReportPerson, error)
	listFunc         func(ctx context.Context, limit, offset int) ([]*entity.Report, error)

	attendees []entity.ReportPerson
	tasks     []entity.Task
	tags      []entity.Tag
	groups    []entity.AuthorizationGroup

	created *entity.Report
	updated *entity.Report
	deleted []string

	addedAttendees   []entity.ReportPerson
	removedAttendees []string
	updatedAttendees []entity.ReportPerson
	addedTasks       []string
	removedTasks     []string
	addedTags        []string
	removedTags      []string
	addedGroups      []string
	removedGroups    []string
}

func (m *mockReportRepo) Create(ctx context.Context, r *entity.Report) error {
	m.created = r
	return nil
}

func (m *mockReportRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Report, error) {
	if m.getByUUIDFunc != nil {
		return m.getByUUIDFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockReportRepo) Update(ctx context.Context, r *entity.Report) error {
	snapshot := *r
	m.updated = &snapshot
	return nil
}

func (m *mockReportRepo) Delete(ctx context.Context, uuid string) error {
	m.deleted = append(m.deleted, uuid)
	return nil
}

func (m *mockReportRepo) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockReportRepo) GetAttendees(ctx context.Context, reportUUID string) ([]entity.ReportPerson, error) {
	if m.getAttendeesFunc != nil {
		return m.getAttendeesFunc(ctx, reportUUID)
	}
	return m.attendees, nil
}

func (m *mockReportRepo) AddAttendee(ctx context.Context, reportUUID string, a entity.ReportPerson) error {
	m.addedAttendees = append(m.addedAttendees, a)
	return nil
}

func (m *mockReportRepo) UpdateAttendee(ctx context.Context, reportUUID string, a entity.ReportPerson) error {
	m.updatedAttendees = append(m.updatedAttendees, a)
	return nil
}

func (m *mockReportRepo) RemoveAttendee(ctx context.Context, reportUUID string, personUUID string) error {
	m.removedAttendees = append(m.removedAttendees, personUUID)
	return nil
}

func (m *mockReportRepo) GetTasks(ctx context.Context, reportUUID string) ([]entity.Task, error) {
	return m.tasks, nil
}

func (m *mockReportRepo) AddTask(ctx context.Context, reportUUID string, taskUUID string) error {
	m.addedTasks = append(m.addedTasks, taskUUID)
	return nil
}

func (m *mockReportRepo) RemoveTask(ctx context.Context, reportUUID string, taskUUID string) error {
	m.removedTasks = append(m.removedTasks, taskUUID)
	return nil
}

func (m *mockReportRepo) GetTags(ctx context.Context, reportUUID string) ([]entity.Tag, error) {
	return m.tags, nil
}

func (m *mockReportRepo) AddTag(ctx context.Context, reportUUID string, tagUUID string) error {
	m.addedTags = append(m.addedTags, tagUUID)
	return nil
}

func (m *mockReportRepo) RemoveTag(ctx context.Context, reportUUID string, tagUUID string) error {
	m.removedTags = append(m.removedTags, tagUUID)
	return nil
}

func (m *mockReportRepo) GetAuthorizationGroups(ctx context.Context, reportUUID string) ([]entity.AuthorizationGroup, error) {
	return m.groups, nil
}

func (m *mockReportRepo) AddAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error {
	m.addedGroups = append(m.addedGroups, groupUUID)
	return nil
}

func (m *mockReportRepo) RemoveAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error {
	m.removedGroups = append(m.removedGroups, groupUUID)
	return nil
}

type mockPersonRepo struct {
	getByUUIDFunc  func(ctx context.Context, uuid string) (*entity.Person, error)
	getByUUIDsFunc func(ctx context.Context, uuids []string) ([]*entity.Person, error)
}

func (m *mockPersonRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Person, error) {
	if m.getByUUIDFunc != nil {
		return m.getByUUIDFunc(ctx, uuid)
	}
	return &entity.Person{UUID: uuid, EmailAddress: uuid + "@example.com"}, nil
}

func (m *mockPersonRepo) GetByUUIDs(ctx context.Context, uuids []string) ([]*entity.Person, error) {
	if m.getByUUIDsFunc != nil {
		return m.getByUUIDsFunc(ctx, uuids)
	}
	people := make([]*entity.Person, 0, len(uuids))
	for _, u := range uuids {
		people = append(people, &entity.Person{UUID: u, EmailAddress: u + "@example.com"})
	}
	return people, nil
}

type mockOrgRepo struct {
	getByUUIDFunc    func(ctx context.Context, uuid string) (*entity.Organization, error)
	getForPersonFunc func(ctx context.Context, personUUID string) (*entity.Organization, error)
}

func (m *mockOrgRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Organization, error) {
	if m.getByUUIDFunc != nil {
		return m.getByUUIDFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockOrgRepo) GetForPerson(ctx context.Context, personUUID string) (*entity.Organization, error) {
	if m.getForPersonFunc != nil {
		return m.getForPersonFunc(ctx, personUUID)
	}
	return nil, nil
}

type mockStepRepo struct {
	getByUUIDFunc      func(ctx context.Context, uuid string) (*entity.ApprovalStep, error)
	getStepsForOrgFunc func(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error)
	getApproversFunc   func(ctx context.Context, stepUUID string) ([]entity.Position, error)
}

func (m *mockStepRepo) GetByUUID(ctx context.Context, uuid string) (*entity.ApprovalStep, error) {
	if m.getByUUIDFunc != nil {
		return m.getByUUIDFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockStepRepo) GetStepsForOrg(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
	if m.getStepsForOrgFunc != nil {
		return m.getStepsForOrgFunc(ctx, orgUUID)
	}
	return nil, nil
}

func (m *mockStepRepo) GetApprovers(ctx context.Context, stepUUID string) ([]entity.Position, error) {
	if m.getApproversFunc != nil {
		return m.getApproversFunc(ctx, stepUUID)
	}
	return nil, nil
}

type mockActionRepo struct {
	actions []*entity.ApprovalAction
}

func (m *mockActionRepo) Create(ctx context.Context, a *entity.ApprovalAction) error {
	m.actions = append(m.actions, a)
	return nil
}

func (m *mockActionRepo) GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.ApprovalAction, error) {
	return m.actions, nil
}

type mockCommentRepo struct {
	getByUUIDFunc func(ctx context.Context, uuid string) (*entity.Comment, error)

	created []*entity.Comment
	deleted []string
}

func (m *mockCommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockCommentRepo) GetByUUID(ctx context.Context, uuid string) (*entity.Comment, error) {
	if m.getByUUIDFunc != nil {
		return m.getByUUIDFunc(ctx, uuid)
	}
	return nil, nil
}

func (m *mockCommentRepo) GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.Comment, error) {
	return m.created, nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, uuid string) error {
	m.deleted = append(m.deleted, uuid)
	return nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockNotifier struct {
	sent []port.Notification
}

func (m *mockNotifier) Send(ctx context.Context, n port.Notification) {
	m.sent = append(m.sent, n)
}

type mockAudit struct {
	actions []string
}

func (m *mockAudit) Record(ctx context.Context, action, reportUUID, actorUUID, detail string) {
	m.actions = append(m.actions, action)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(html string) string { return html }

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// Fixtures

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }

type serviceMocks struct {
	reports  *mockReportRepo
	people   *mockPersonRepo
	orgs     *mockOrgRepo
	steps    *mockStepRepo
	actions  *mockActionRepo
	comments *mockCommentRepo
	notifier *mockNotifier
	audit    *mockAudit
}

func newServiceMocks() *serviceMocks {
	return &serviceMocks{
		reports:  &mockReportRepo{},
		people:   &mockPersonRepo{},
		orgs:     &mockOrgRepo{},
		steps:    &mockStepRepo{},
		actions:  &mockActionRepo{},
		comments: &mockCommentRepo{},
		notifier: &mockNotifier{},
		audit:    &mockAudit{},
	}
}

func newTestService(m *serviceMocks, defaultOrgUUID string) *reportService {
	logger := &mockLogger{}
	resolver := NewChainResolver(m.steps, "support@example.com", logger)
	svc := NewReportService(
		m.reports, m.people, m.orgs, m.steps, m.actions, m.comments,
		&mockTxManager{}, resolver, m.notifier, m.audit,
		passthroughSanitizer{}, defaultOrgUUID, logger,
	).(*reportService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func author() *entity.Person {
	return &entity.Person{UUID: "author-1", EmailAddress: "author-1@example.com"}
}

// orgForAttendees maps each attendee to their own organization.
func orgForAttendees(m *serviceMocks) {
	m.orgs.getForPersonFunc = func(ctx context.Context, personUUID string) (*entity.Organization, error) {
		switch personUUID {
		case "adv-1", "author-1":
			return &entity.Organization{UUID: "org-adv", Type: entity.OrgTypeAdvisor}, nil
		case "pri-1":
			return &entity.Organization{UUID: "org-pri", Type: entity.OrgTypePrincipal}, nil
		}
		return nil, nil
	}
}

func twoStepChain(m *serviceMocks, approverUUID string) {
	step2 := &entity.ApprovalStep{UUID: "step-2", Name: "Final", AdvisorOrgUUID: "org-adv"}
	step1 := &entity.ApprovalStep{UUID: "step-1", Name: "First", AdvisorOrgUUID: "org-adv", NextStepUUID: strPtr("step-2")}

	m.steps.getStepsForOrgFunc = func(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
		if orgUUID == "org-adv" {
			// Storage order deliberately differs from chain order.
			return []*entity.ApprovalStep{step2, step1}, nil
		}
		return nil, nil
	}
	m.steps.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.ApprovalStep, error) {
		switch uuid {
		case "step-1":
			return step1, nil
		case "step-2":
			return step2, nil
		}
		return nil, nil
	}
	m.steps.getApproversFunc = func(ctx context.Context, stepUUID string) ([]entity.Position, error) {
		return []entity.Position{
			{UUID: "pos-1", Type: entity.PositionTypeMember, CurrentPersonUUID: strPtr(approverUUID)},
		}, nil
	}
}

func draftReport() *entity.Report {
	return &entity.Report{
		UUID:           "r-1",
		State:          workflow.StateDraft.String(),
		AuthorUUID:     "author-1",
		Intent:         "quarterly sync",
		EngagementDate: timePtr(testNow.AddDate(0, 0, -1)),
		Attendees: []entity.ReportPerson{
			{PersonUUID: "adv-1", Role: entity.RoleAdvisor, IsPrimary: true},
			{PersonUUID: "pri-1", Role: entity.RolePrincipal, IsPrimary: true},
		},
	}
}

// Create

func TestCreate_DraftByDefault(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	created, err := svc.Create(context.Background(), author(), &entity.Report{
		Intent: "meet the director",
		Attendees: []entity.ReportPerson{
			{PersonUUID: "adv-1", Role: entity.RoleAdvisor, IsPrimary: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StateDraft.String(), created.State)
	assert.Equal(t, "author-1", created.AuthorUUID)
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, strPtr("org-adv"), created.AdvisorOrgUUID)
	require.NotNil(t, m.reports.created)
	assert.Len(t, m.reports.addedAttendees, 1)
}

func TestCreate_FutureEngagement(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	created, err := svc.Create(context.Background(), author(), &entity.Report{
		EngagementDate: timePtr(testNow.AddDate(0, 0, 2)),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateFuture.String(), created.State)
}

func TestCreate_FutureButCancelledStaysDraft(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	created, err := svc.Create(context.Background(), author(), &entity.Report{
		EngagementDate:  timePtr(testNow.AddDate(0, 0, 2)),
		CancelledReason: strPtr("principal unavailable"),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft.String(), created.State)
}

func TestCreate_EngagementLaterTodayIsNotFuture(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	created, err := svc.Create(context.Background(), author(), &entity.Report{
		EngagementDate: timePtr(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft.String(), created.State)
}

// Submit

func TestSubmit_HappyPath(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)
	twoStepChain(m, "approver-1")

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	submitted, err := svc.Submit(context.Background(), author(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatePendingApproval.String(), submitted.State)
	require.NotNil(t, submitted.ApprovalStepUUID)
	assert.Equal(t, "step-1", *submitted.ApprovalStepUUID)

	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationApprovalNeeded, m.notifier.sent[0].Type)
	assert.Equal(t, []string{"approver-1@example.com"}, m.notifier.sent[0].Recipients)
}

func TestSubmit_PendingReportRestartsAtFirstStep(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)
	twoStepChain(m, "approver-1")

	// Already pending at the final step; resubmission recomputes the chain
	// from scratch rather than resuming where the report left off.
	report := pendingReport("step-2")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	submitted, err := svc.Submit(context.Background(), author(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatePendingApproval.String(), submitted.State)
	require.NotNil(t, submitted.ApprovalStepUUID)
	assert.Equal(t, "step-1", *submitted.ApprovalStepUUID)
}

func TestSubmit_ReleasedReportRejected(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return &entity.Report{UUID: uuid, State: workflow.StateReleased.String()}, nil
	}

	_, err := svc.Submit(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmit_MissingPrimaryPrincipal(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	report := draftReport()
	report.Attendees = report.Attendees[:1] // advisor only
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Submit(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrMissingPrimaryAttendee)
}

func TestSubmit_FutureEngagementDateRejected(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	report := draftReport()
	report.State = workflow.StateFuture.String()
	report.EngagementDate = timePtr(testNow.AddDate(0, 0, 3))
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Submit(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrInvalidEngagementDate)
}

func TestSubmit_MissingEngagementDate(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	report := draftReport()
	report.EngagementDate = nil
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Submit(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmit_NoChainConfigured(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees
	// org-adv has no steps.

	_, err := svc.Submit(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrNoApprovalChain)
	assert.Contains(t, err.Error(), "support@example.com")
}

func TestSubmit_AuthorWithoutOrgFallsBackToDefault(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "org-default")
	twoStepChain(m, "approver-1")

	m.orgs.getForPersonFunc = func(ctx context.Context, personUUID string) (*entity.Organization, error) {
		switch personUUID {
		case "adv-1":
			return &entity.Organization{UUID: "org-adv", Type: entity.OrgTypeAdvisor}, nil
		case "pri-1":
			return &entity.Organization{UUID: "org-pri", Type: entity.OrgTypePrincipal}, nil
		}
		return nil, nil // author has no position
	}
	m.steps.getStepsForOrgFunc = func(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
		if orgUUID == "org-default" {
			return []*entity.ApprovalStep{{UUID: "step-d", Name: "Default", AdvisorOrgUUID: "org-default"}}, nil
		}
		return nil, nil
	}

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	submitted, err := svc.Submit(context.Background(), author(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "step-d", *submitted.ApprovalStepUUID)
}

// Approve

func pendingReport(stepUUID string) *entity.Report {
	r := draftReport()
	r.State = workflow.StatePendingApproval.String()
	r.ApprovalStepUUID = strPtr(stepUUID)
	r.AdvisorOrgUUID = strPtr("org-adv")
	r.PrincipalOrgUUID = strPtr("org-pri")
	return r
}

func TestApprove_AdvancesToNextStep(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-1")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	approver := &entity.Person{UUID: "approver-1"}
	approved, err := svc.Approve(context.Background(), approver, "r-1", "")
	require.NoError(t, err)

	assert.Equal(t, workflow.StatePendingApproval.String(), approved.State)
	assert.Equal(t, "step-2", *approved.ApprovalStepUUID)
	assert.Nil(t, approved.ReleasedAt)

	require.Len(t, m.actions.actions, 1)
	assert.Equal(t, entity.ActionApprove, m.actions.actions[0].Type)
	assert.Equal(t, "step-1", m.actions.actions[0].StepUUID)

	// Next step's approvers are notified.
	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationApprovalNeeded, m.notifier.sent[0].Type)
}

func TestApprove_FinalStepReleases(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-2")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	approver := &entity.Person{UUID: "approver-1"}
	approved, err := svc.Approve(context.Background(), approver, "r-1", "looks good")
	require.NoError(t, err)

	assert.Equal(t, workflow.StateReleased.String(), approved.State)
	assert.Nil(t, approved.ApprovalStepUUID)
	require.NotNil(t, approved.ReleasedAt)
	assert.Equal(t, testNow, *approved.ReleasedAt)

	// Optional approval comment is stored.
	require.Len(t, m.comments.created, 1)
	assert.Equal(t, "looks good", m.comments.created[0].Text)

	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationReportReleased, m.notifier.sent[0].Type)
	assert.Equal(t, []string{"author-1@example.com"}, m.notifier.sent[0].Recipients)
}

func TestApprove_FinalStepOfCancelledReport(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-2")
	report.CancelledReason = strPtr("engagement cancelled")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	approved, err := svc.Approve(context.Background(), &entity.Person{UUID: "approver-1"}, "r-1", "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCancelled.String(), approved.State)
	require.NotNil(t, approved.ReleasedAt)
}

func TestApprove_NotAnApprover(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-1")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	_, err := svc.Approve(context.Background(), &entity.Person{UUID: "stranger"}, "r-1", "")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, m.actions.actions)
}

func TestApprove_NotPending(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return &entity.Report{UUID: uuid, State: workflow.StateReleased.String()}, nil
	}

	_, err := svc.Approve(context.Background(), &entity.Person{UUID: "approver-1"}, "r-1", "")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestApprove_MissingReport(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	_, err := svc.Approve(context.Background(), &entity.Person{UUID: "approver-1"}, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Reject

func TestReject_RequiresComment(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	_, err := svc.Reject(context.Background(), &entity.Person{UUID: "approver-1"}, "r-1", "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReject_ReturnsReportToAuthor(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-1")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	rejected, err := svc.Reject(context.Background(), &entity.Person{UUID: "approver-1"}, "r-1", "  missing outcomes  ")
	require.NoError(t, err)

	assert.Equal(t, workflow.StateRejected.String(), rejected.State)
	assert.Nil(t, rejected.ApprovalStepUUID)

	require.Len(t, m.actions.actions, 1)
	assert.Equal(t, entity.ActionReject, m.actions.actions[0].Type)

	require.Len(t, m.comments.created, 1)
	assert.Equal(t, "missing outcomes", m.comments.created[0].Text)

	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationReportRejected, m.notifier.sent[0].Type)
}

// Edit

func TestEdit_NonAuthorCannotEditDraft(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}

	_, err := svc.Edit(context.Background(), &entity.Person{UUID: "someone-else"}, &entity.Report{UUID: "r-1"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEdit_ReleasedReportForbiddenAndAudited(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return &entity.Report{UUID: uuid, State: workflow.StateReleased.String(), AuthorUUID: "author-1"}, nil
	}

	_, err := svc.Edit(context.Background(), author(), &entity.Report{UUID: "r-1"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, m.audit.actions, "report.edit_forbidden")
}

func TestEdit_AuthorEditOfPendingWithdrawsToDraft(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := pendingReport("step-1")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	snapshot, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		Intent:         "updated intent",
		EngagementDate: timePtr(testNow.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)

	// Pre-edit snapshot is returned unchanged.
	assert.Equal(t, workflow.StatePendingApproval.String(), snapshot.State)

	require.NotNil(t, m.reports.updated)
	assert.Equal(t, workflow.StateDraft.String(), m.reports.updated.State)
	assert.Nil(t, m.reports.updated.ApprovalStepUUID)
	assert.Empty(t, m.notifier.sent)
}

func TestEdit_ApproverEditOfPendingNotifiesAuthor(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	twoStepChain(m, "approver-1")

	report := pendingReport("step-1")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Edit(context.Background(), &entity.Person{UUID: "approver-1"}, &entity.Report{
		UUID:           "r-1",
		Intent:         "approver touch-up",
		EngagementDate: timePtr(testNow.AddDate(0, 0, -1)),
	})
	require.NoError(t, err)

	require.NotNil(t, m.reports.updated)
	assert.Equal(t, workflow.StatePendingApproval.String(), m.reports.updated.State)
	assert.Equal(t, "step-1", *m.reports.updated.ApprovalStepUUID)

	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationReportEdited, m.notifier.sent[0].Type)
	assert.Equal(t, []string{"author-1@example.com"}, m.notifier.sent[0].Recipients)
}

func TestEdit_DraftMovesToFutureWhenDateMovesForward(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		EngagementDate: timePtr(testNow.AddDate(0, 0, 5)),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateFuture.String(), m.reports.updated.State)
}

func TestEdit_FutureMovesToDraftWhenDateMovesBack(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	report.State = workflow.StateFuture.String()
	report.EngagementDate = timePtr(testNow.AddDate(0, 0, 5))
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		EngagementDate: timePtr(testNow.AddDate(0, 0, -2)),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft.String(), m.reports.updated.State)
}

func TestEdit_FutureMovesToDraftWhenCancelled(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	report.State = workflow.StateFuture.String()
	report.EngagementDate = timePtr(testNow.AddDate(0, 0, 5))
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:            "r-1",
		EngagementDate:  timePtr(testNow.AddDate(0, 0, 5)),
		CancelledReason: strPtr("postponed indefinitely"),
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft.String(), m.reports.updated.State)
}

func TestEdit_ReconcilesAttendees(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	orgForAttendees(m)

	report := draftReport()
	report.Attendees = []entity.ReportPerson{
		{PersonUUID: "adv-1", Role: entity.RoleAdvisor, IsPrimary: true},
		{PersonUUID: "pri-1", Role: entity.RolePrincipal, IsPrimary: true},
		{PersonUUID: "extra", Role: entity.RoleAdvisor},
	}
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		EngagementDate: report.EngagementDate,
		Attendees: []entity.ReportPerson{
			{PersonUUID: "adv-1", Role: entity.RoleAdvisor, IsPrimary: true},
			{PersonUUID: "pri-1", Role: entity.RolePrincipal}, // primary flag dropped
			{PersonUUID: "new-1", Role: entity.RoleAdvisor},
		},
	})
	require.NoError(t, err)

	require.Len(t, m.reports.addedAttendees, 1)
	assert.Equal(t, "new-1", m.reports.addedAttendees[0].PersonUUID)
	assert.Equal(t, []string{"extra"}, m.reports.removedAttendees)
	require.Len(t, m.reports.updatedAttendees, 1)
	assert.Equal(t, "pri-1", m.reports.updatedAttendees[0].PersonUUID)
	assert.False(t, m.reports.updatedAttendees[0].IsPrimary)
}

func TestEdit_NilCollectionsLeftUntouched(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees
	m.reports.tasks = []entity.Task{{UUID: "t-1", ShortName: "1.1"}}

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		EngagementDate: report.EngagementDate,
	})
	require.NoError(t, err)

	assert.Empty(t, m.reports.addedAttendees)
	assert.Empty(t, m.reports.removedAttendees)
	assert.Empty(t, m.reports.removedTasks)
}

func TestEdit_EmptyCollectionRemovesEverything(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	report := draftReport()
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return report, nil
	}
	m.reports.attendees = report.Attendees
	m.reports.tasks = []entity.Task{{UUID: "t-1", ShortName: "1.1"}}

	_, err := svc.Edit(context.Background(), author(), &entity.Report{
		UUID:           "r-1",
		EngagementDate: report.EngagementDate,
		Tasks:          []entity.Task{},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1"}, m.reports.removedTasks)
}

// Delete

func TestDelete_AuthorCanDeleteDraft(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return draftReport(), nil
	}

	err := svc.Delete(context.Background(), author(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, m.reports.deleted)
}

func TestDelete_AuthorCannotDeleteReleased(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return &entity.Report{UUID: uuid, State: workflow.StateReleased.String(), AuthorUUID: "author-1"}, nil
	}

	err := svc.Delete(context.Background(), author(), "r-1")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, m.reports.deleted)
}

func TestDelete_AdminCanDeleteAnything(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return &entity.Report{UUID: uuid, State: workflow.StateReleased.String(), AuthorUUID: "author-1"}, nil
	}

	admin := &entity.Person{
		UUID:     "admin-1",
		Position: &entity.Position{UUID: "pos-a", Type: entity.PositionTypeAdministrator},
	}
	err := svc.Delete(context.Background(), admin, "r-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, m.reports.deleted)
}

// Comments

func TestAddComment_NotifiesAuthor(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")
	m.reports.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Report, error) {
		return draftReport(), nil
	}

	comment, err := svc.AddComment(context.Background(), &entity.Person{UUID: "reader-1"}, "r-1", "please clarify")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.UUID)

	require.Len(t, m.notifier.sent, 1)
	assert.Equal(t, entity.NotificationNewComment, m.notifier.sent[0].Type)
}

func TestAddComment_EmptyTextRejected(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	_, err := svc.AddComment(context.Background(), author(), "r-1", "  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteComment_AdminOnly(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	err := svc.DeleteComment(context.Background(), author(), "c-1")
	assert.ErrorIs(t, err, ErrForbidden)

	m.comments.getByUUIDFunc = func(ctx context.Context, uuid string) (*entity.Comment, error) {
		return &entity.Comment{UUID: uuid}, nil
	}
	admin := &entity.Person{
		UUID:     "admin-1",
		Position: &entity.Position{UUID: "pos-a", Type: entity.PositionTypeAdministrator},
	}
	err = svc.DeleteComment(context.Background(), admin, "c-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, m.comments.deleted)
}

func TestDeleteComment_MissingComment(t *testing.T) {
	m := newServiceMocks()
	svc := newTestService(m, "")

	admin := &entity.Person{
		UUID:     "admin-1",
		Position: &entity.Position{UUID: "pos-a", Type: entity.PositionTypeAdministrator},
	}
	err := svc.DeleteComment(context.Background(), admin, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
