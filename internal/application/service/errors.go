package service

import "errors"

// Closed error taxonomy for the report lifecycle. Transport adapters map
// these to status codes with errors.Is; business-rule outcomes are ordinary
// return values, never panics.
var (
	// ErrNotFound is returned when an entity id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting person may not perform the
	// requested transition.
	ErrForbidden = errors.New("forbidden")

	// ErrNotPending is returned when an approval decision targets a report
	// that is not pending approval.
	ErrNotPending = errors.New("report is not pending approval")

	// ErrInvalidState is returned when an operation is not valid for the
	// report's current lifecycle state.
	ErrInvalidState = errors.New("operation not valid for report state")

	// ErrValidation is returned on malformed or missing required input.
	ErrValidation = errors.New("validation failed")

	// ErrMissingPrimaryAttendee is returned by Submit when an organization
	// cannot be derived because the corresponding primary attendee is absent.
	ErrMissingPrimaryAttendee = errors.New("report missing a primary attendee")

	// ErrInvalidEngagementDate is returned by Submit for future, uncancelled
	// engagements.
	ErrInvalidEngagementDate = errors.New("cannot submit a future engagement unless it is cancelled")

	// ErrNoApprovalChain is returned when no approval chain is resolvable for
	// the responsible organization or the configured default.
	ErrNoApprovalChain = errors.New("no approval chain configured")
)
