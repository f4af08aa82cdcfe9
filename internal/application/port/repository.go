package port

import (
	"context"

	"github.com/advisornet/reportd/internal/domain/entity"
)

// ReportRepository defines persistence operations for Report and its four
// related collections. Repositories return (nil, nil) when an entity does
// not exist; translating that into a not-found error is the service's job.
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	GetByUUID(ctx context.Context, uuid string) (*entity.Report, error)
	Update(ctx context.Context, report *entity.Report) error
	Delete(ctx context.Context, uuid string) error
	List(ctx context.Context, limit, offset int) ([]*entity.Report, error)

	GetAttendees(ctx context.Context, reportUUID string) ([]entity.ReportPerson, error)
	AddAttendee(ctx context.Context, reportUUID string, attendee entity.ReportPerson) error
	UpdateAttendee(ctx context.Context, reportUUID string, attendee entity.ReportPerson) error
	RemoveAttendee(ctx context.Context, reportUUID string, personUUID string) error

	GetTasks(ctx context.Context, reportUUID string) ([]entity.Task, error)
	AddTask(ctx context.Context, reportUUID string, taskUUID string) error
	RemoveTask(ctx context.Context, reportUUID string, taskUUID string) error

	GetTags(ctx context.Context, reportUUID string) ([]entity.Tag, error)
	AddTag(ctx context.Context, reportUUID string, tagUUID string) error
	RemoveTag(ctx context.Context, reportUUID string, tagUUID string) error

	GetAuthorizationGroups(ctx context.Context, reportUUID string) ([]entity.AuthorizationGroup, error)
	AddAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error
	RemoveAuthorizationGroup(ctx context.Context, reportUUID string, groupUUID string) error
}

// PersonRepository defines persistence operations for Person.
type PersonRepository interface {
	GetByUUID(ctx context.Context, uuid string) (*entity.Person, error)
	GetByUUIDs(ctx context.Context, uuids []string) ([]*entity.Person, error)
}

// OrganizationRepository defines persistence operations for Organization.
type OrganizationRepository interface {
	GetByUUID(ctx context.Context, uuid string) (*entity.Organization, error)
	// GetForPerson resolves the organization of the person's current
	// position, or (nil, nil) when the person holds no position.
	GetForPerson(ctx context.Context, personUUID string) (*entity.Organization, error)
}

// ApprovalStepRepository defines persistence operations for ApprovalStep.
type ApprovalStepRepository interface {
	GetByUUID(ctx context.Context, uuid string) (*entity.ApprovalStep, error)
	// GetStepsForOrg returns the organization's steps in storage order;
	// chain ordering by next-step links is the resolver's concern.
	GetStepsForOrg(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error)
	// GetApprovers returns the approver positions configured for a step,
	// including vacant ones.
	GetApprovers(ctx context.Context, stepUUID string) ([]entity.Position, error)
}

// ApprovalActionRepository records immutable approve/reject decisions.
type ApprovalActionRepository interface {
	Create(ctx context.Context, action *entity.ApprovalAction) error
	GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.ApprovalAction, error)
}

// CommentRepository defines persistence operations for Comment.
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByUUID(ctx context.Context, uuid string) (*entity.Comment, error)
	GetByReportUUID(ctx context.Context, reportUUID string) ([]*entity.Comment, error)
	Delete(ctx context.Context, uuid string) error
}

// NotificationRepository persists the notification outbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

// TransactionManager provides transactional execution scope. The transaction
// travels in the context; repositories pick it up transparently.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
