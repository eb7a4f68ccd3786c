package payments

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Status is the lifecycle state of a received payment.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusPaid  Status = "PAID"
)

// Invoice statuses derived by reconciliation.
const (
	InvoicePaid          = "PAID"
	InvoicePartiallyPaid = "PARTIALLY_PAID"
)

// Payment is one received-payment row. Rows are append-only: editing a
// payment reverses the old row and its ledger transactions, then inserts a
// fresh row carrying the same business PaymentID.
type Payment struct {
	ID                  int64     `json:"id"`
	BranchID            int64     `json:"branchId"`
	CustomerID          int64     `json:"customerId"`
	InvoiceID           *int64    `json:"invoiceId,omitempty"`
	PaymentID           string    `json:"paymentId"`
	PaymentDate         time.Time `json:"paymentDate"`
	PostingDate         time.Time `json:"postingDate"`
	Amount              float64   `json:"amount"`
	BankCharges         float64   `json:"bankCharges"`
	AccountID           int64     `json:"accountId"`
	ReceivableAccountID int64     `json:"receivableAccountId"`
	PaymentMode         string    `json:"paymentMode"`
	Reference           string    `json:"reference,omitempty"`
	Status              Status    `json:"status"`
	IsReversed          bool      `json:"isReversed"`
	CreatedBy           int64     `json:"createdBy"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`

	shared.SoftDelete
}

// CreateInput is what the service accepts when recording a payment.
type CreateInput struct {
	BranchID            int64
	CustomerID          int64
	InvoiceID           *int64
	ManualNumber        string
	PaymentDate         time.Time
	PostingDate         time.Time
	Amount              float64
	BankCharges         float64
	AccountID           int64
	ReceivableAccountID int64
	PaymentMode         string
	Reference           string
	Status              Status
	CreatedBy           int64
}

// UpdateInput re-issues an existing payment with corrected values.
type UpdateInput struct {
	ID                  int64
	CustomerID          int64
	InvoiceID           *int64
	PaymentDate         time.Time
	PostingDate         time.Time
	Amount              float64
	BankCharges         float64
	AccountID           int64
	ReceivableAccountID int64
	PaymentMode         string
	Reference           string
	Status              Status
	UpdatedBy           int64
}
