package vendors

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Vendor is a branch-scoped supplier that bills, purchase orders and
// vendor credits reference.
type Vendor struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branchId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	TaxNumber string    `json:"taxNumber,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	shared.SoftDelete
}
