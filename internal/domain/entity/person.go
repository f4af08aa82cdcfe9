package entity

import "time"

// Person role constants. Advisors author reports; principals are the
// counterpart side of an engagement.
const (
	RoleAdvisor   = "ADVISOR"
	RolePrincipal = "PRINCIPAL"
)

// Position type constants.
const (
	PositionTypeMember        = "MEMBER"
	PositionTypeSuperUser     = "SUPER_USER"
	PositionTypeAdministrator = "ADMINISTRATOR"
)

// Person represents a user of the system.
type Person struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	EmailAddress string    `json:"email_address"`
	PositionUUID *string   `json:"position_uuid,omitempty"`
	Position     *Position `json:"position,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the person currently holds an administrator position.
func (p *Person) IsAdmin() bool {
	return p.Position != nil && p.Position.Type == PositionTypeAdministrator
}

// Position is a billet within an organization. A position may be vacant
// (CurrentPersonUUID nil).
type Position struct {
	UUID              string  `json:"uuid"`
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	OrganizationUUID  *string `json:"organization_uuid,omitempty"`
	CurrentPersonUUID *string `json:"current_person_uuid,omitempty"`
}
