package customers

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Customer is a branch-scoped buyer that invoices, quotes and payments
// reference.
type Customer struct {
	ID              int64     `json:"id"`
	BranchID        int64     `json:"branchId"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	BillingAddress  string    `json:"billingAddress,omitempty"`
	ShippingAddress string    `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	shared.SoftDelete
}
