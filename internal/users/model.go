package users

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// User is a managed account. CompanyAdmin accounts own branches; User
// accounts are pinned to exactly one branch.
type User struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      shared.Role `json:"role"`
	BranchID  *int64      `json:"branchId,omitempty"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`

	shared.SoftDelete
}

// CreateInput carries the fields accepted when provisioning a user.
type CreateInput struct {
	Username string
	Email    string
	Password string
	Role     shared.Role
	BranchID *int64
}

// UpdateInput mutates profile, role and branch assignment. A nil Password
// leaves the stored hash untouched.
type UpdateInput struct {
	ID       int64
	Username string
	Email    string
	Password string
	Role     shared.Role
	BranchID *int64
	IsActive bool
}
