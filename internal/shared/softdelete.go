package shared

import "time"

// SoftDelete is the common deletion envelope carried by business rows.
// Rows are never physically removed by the API; deletion flips IsDeleted
// and stamps who did it.
type SoftDelete struct {
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy *int64     `json:"deletedBy,omitempty"`
}
