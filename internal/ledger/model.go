package ledger

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TransactionType marks which side of the ledger a row sits on.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Transaction is one immutable debit or credit row against an account.
// Corrections never edit or delete a row; the old rows are flagged reversed
// and fresh rows are inserted.
type Transaction struct {
	ID              int64           `json:"id"`
	BranchID        int64           `json:"branchId"`
	AccountID       int64           `json:"accountId"`
	Type            TransactionType `json:"transactionType"`
	Amount          float64         `json:"amount"`
	PaymentID       *string         `json:"paymentId,omitempty"`
	Reference       *string         `json:"reference,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
	Description     *string         `json:"description,omitempty"`
	CustomerID      *int64          `json:"customerId,omitempty"`
	VendorID        *int64          `json:"vendorId,omitempty"`
	CreatedBy       int64           `json:"createdById"`
	IsReversed      bool            `json:"isReversed"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	shared.SoftDelete
}

// PostInput carries the fields for one ledger posting.
type PostInput struct {
	BranchID        int64
	AccountID       int64
	Type            TransactionType
	Amount          float64
	PaymentID       *string
	Reference       *string
	TransactionDate time.Time
	Description     *string
	CustomerID      *int64
	VendorID        *int64
	CreatedBy       int64
}

// AccountBalance aggregates non-reversed activity for an account.
type AccountBalance struct {
	AccountID   int64   `json:"accountId"`
	DebitTotal  float64 `json:"debitTotal"`
	CreditTotal float64 `json:"creditTotal"`
	Balance     float64 `json:"balance"`
}
