package accounts

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AccountType buckets chart-of-accounts nodes.
type AccountType string

const (
	TypeAsset     AccountType = "ASSET"
	TypeLiability AccountType = "LIABILITY"
	TypeEquity    AccountType = "EQUITY"
	TypeIncome    AccountType = "INCOME"
	TypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists every valid account type.
var AccountTypes = []AccountType{TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense}

// Account is a chart-of-accounts node, optionally parented to another node in
// the same branch.
type Account struct {
	ID              int64       `json:"id"`
	BranchID        int64       `json:"branchId"`
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	Type            AccountType `json:"accountType"`
	ParentAccountID *int64      `json:"parentAccountId,omitempty"`
	Description     *string     `json:"description,omitempty"`
	CreatedBy       int64       `json:"createdById"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`

	shared.SoftDelete
}
