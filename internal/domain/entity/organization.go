package entity

import "time"

// Organization type constants; the type selects which side of an engagement
// the organization sits on.
const (
	OrgTypeAdvisor   = "ADVISOR_ORG"
	OrgTypePrincipal = "PRINCIPAL_ORG"
)

// Organization is a node in the org tree. Approval chains are configured per
// organization.
type Organization struct {
	UUID       string    `json:"uuid"`
	ShortName  string    `json:"short_name"`
	LongName   string    `json:"long_name,omitempty"`
	Type       string    `json:"type"`
	ParentUUID *string   `json:"parent_uuid,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
