package entity

import "time"

// Report represents an engagement report moving through the approval lifecycle.
// State, ApprovalStepUUID and AuthorUUID are server-authoritative; clients
// never set them directly.
type Report struct {
	UUID             string     `json:"uuid"`
	State            string     `json:"state"`
	AuthorUUID       string     `json:"author_uuid"`
	Intent           string     `json:"intent"`
	Text             string     `json:"text"`
	KeyOutcomes      string     `json:"key_outcomes,omitempty"`
	NextSteps        string     `json:"next_steps,omitempty"`
	EngagementDate   *time.Time `json:"engagement_date,omitempty"`
	CancelledReason  *string    `json:"cancelled_reason,omitempty"`
	AdvisorOrgUUID   *string    `json:"advisor_org_uuid,omitempty"`
	PrincipalOrgUUID *string    `json:"principal_org_uuid,omitempty"`
	ApprovalStepUUID *string    `json:"approval_step_uuid,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Related collections. A nil slice means "not submitted, leave as is";
	// an empty non-nil slice means "remove everything".
	Attendees           []ReportPerson       `json:"attendees,omitempty"`
	Tasks               []Task               `json:"tasks,omitempty"`
	Tags                []Tag                `json:"tags,omitempty"`
	AuthorizationGroups []AuthorizationGroup `json:"authorization_groups,omitempty"`
}

// ReportPerson is an attendee on a report. At most one attendee per role is
// flagged primary; the primary attendee drives organization attribution.
type ReportPerson struct {
	PersonUUID string `json:"person_uuid"`
	Role       string `json:"role"`
	IsPrimary  bool   `json:"is_primary"`
}

// Identity implements reconcile.Entity.
func (rp ReportPerson) Identity() string { return rp.PersonUUID }

// PrimaryAttendee returns the primary attendee for the given role, or nil.
func (r *Report) PrimaryAttendee(role string) *ReportPerson {
	for i := range r.Attendees {
		if r.Attendees[i].IsPrimary && r.Attendees[i].Role == role {
			return &r.Attendees[i]
		}
	}
	return nil
}

// IsCancelled reports whether a cancellation reason has been recorded.
func (r *Report) IsCancelled() bool {
	return r.CancelledReason != nil && *r.CancelledReason != ""
}
