package entity

import "time"

// ApprovalAction type constants.
const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// ApprovalStep is one link in an organization's approval chain. Steps form a
// singly linked list via NextStepUUID; a nil NextStepUUID marks the terminal
// step.
type ApprovalStep struct {
	UUID              string     `json:"uuid"`
	Name              string     `json:"name"`
	AdvisorOrgUUID    string     `json:"advisor_org_uuid"`
	NextStepUUID      *string    `json:"next_step_uuid,omitempty"`
	ApproverPositions []Position `json:"approver_positions,omitempty"`
}

// ApprovalAction is the immutable audit record of an approve or reject
// decision. Rows are append-only.
type ApprovalAction struct {
	ID         int64     `json:"id"`
	ReportUUID string    `json:"report_uuid"`
	StepUUID   string    `json:"step_uuid"`
	PersonUUID string    `json:"person_uuid"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}
