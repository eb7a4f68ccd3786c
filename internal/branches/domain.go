package branches

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Branch is a tenant sub-unit owned by a CompanyAdmin. It is the scoping
// boundary for nearly all business documents.
type Branch struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	CompanyAdminID int64     `json:"companyAdminId"`
	Address        *string   `json:"address,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	shared.SoftDelete
}

// Access is the authorization-resolved view of which branches a user may act on.
type Access struct {
	User      *AccessUser
	BranchIDs []int64
}

// AccessUser is the subset of the user record the resolver needs.
type AccessUser struct {
	ID       int64
	Role     shared.Role
	BranchID *int64
}

// Allows reports whether the branch id is in the resolved set.
func (a Access) Allows(branchID int64) bool {
	for _, id := range a.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}
