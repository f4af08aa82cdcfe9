package entity

import "time"

// Comment is free text attached to a report. Append-only apart from
// administrative delete.
type Comment struct {
	UUID       string    `json:"uuid"`
	ReportUUID string    `json:"report_uuid"`
	AuthorUUID string    `json:"author_uuid"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
