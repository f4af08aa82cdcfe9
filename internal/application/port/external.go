package port

import "context"

// Notification is a typed, fire-and-forget notification request.
type Notification struct {
	Type       string
	ReportUUID string
	ActorUUID  string
	Recipients []string // email addresses
	Body       string
}

// Notifier accepts notification requests for asynchronous delivery. Send
// must never fail the calling operation; delivery errors are handled
// out-of-band.
type Notifier interface {
	Send(ctx context.Context, n Notification)
}

// AuditLogger appends structured audit events. Failures are swallowed after
// logging; auditing never fails a state transition.
type AuditLogger interface {
	Record(ctx context.Context, action, reportUUID, actorUUID, detail string)
}

// TextSanitizer cleans client-supplied rich text against an HTML allow-list.
type TextSanitizer interface {
	Sanitize(html string) string
}
