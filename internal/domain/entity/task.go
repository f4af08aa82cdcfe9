package entity

// Task is a unit of work a report can be tagged against.
type Task struct {
	UUID      string `json:"uuid"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name,omitempty"`
}

// Identity implements reconcile.Entity.
func (t Task) Identity() string { return t.UUID }

// Tag is a free-form label on a report.
type Tag struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Identity implements reconcile.Entity.
func (t Tag) Identity() string { return t.UUID }

// AuthorizationGroup grants a set of positions read access to a report.
type AuthorizationGroup struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Identity implements reconcile.Entity.
func (g AuthorizationGroup) Identity() string { return g.UUID }
