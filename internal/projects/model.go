package projects

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "ACTIVE"
	StatusOnHold    ProjectStatus = "ON_HOLD"
	StatusCompleted ProjectStatus = "COMPLETED"
)

// Project is a branch-scoped engagement, optionally tied to a customer.
type Project struct {
	ID         int64         `json:"id"`
	BranchID   int64         `json:"branchId"`
	CustomerID *int64        `json:"customerId,omitempty"`
	Name       string        `json:"name"`
	Status     ProjectStatus `json:"status"`
	CreatedBy  int64         `json:"createdBy"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`

	shared.SoftDelete
}

// Timesheet is one logged work entry against a project.
type Timesheet struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	UserID    int64     `json:"userId"`
	WorkDate  time.Time `json:"workDate"`
	Hours     float64   `json:"hours"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
