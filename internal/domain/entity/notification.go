package entity

import "time"

// Notification type constants.
const (
	NotificationApprovalNeeded = "APPROVAL_NEEDED"
	NotificationReportEdited   = "REPORT_EDITED"
	NotificationReportReleased = "REPORT_RELEASED"
	NotificationReportRejected = "REPORT_REJECTED"
	NotificationNewComment     = "NEW_COMMENT"
)

// Notification delivery status constants.
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification is an outbox row. Rows are written inside the transaction
// that triggers them and delivered by the dispatcher after commit, so a
// failed delivery never rolls back a state transition.
type Notification struct {
	ID           int64      `json:"id"`
	Type         string     `json:"type"`
	ReportUUID   string     `json:"report_uuid"`
	ActorUUID    string     `json:"actor_uuid,omitempty"`
	Recipients   string     `json:"recipients"` // comma-separated email addresses
	Body         string     `json:"body,omitempty"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
