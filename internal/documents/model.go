package documents

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Document is the shared header every financial document kind persists.
// Exactly one of CustomerID and VendorID is set, depending on the kind's
// counterparty side.
type Document struct {
	ID            int64             `json:"id"`
	Kind          numbering.DocKind `json:"kind"`
	BranchID      int64             `json:"branchId"`
	DocNumber     string            `json:"docNumber"`
	CustomerID    *int64            `json:"customerId,omitempty"`
	VendorID      *int64            `json:"vendorId,omitempty"`
	DocDate       time.Time         `json:"docDate"`
	DueDate       *time.Time        `json:"dueDate,omitempty"`
	Status        string            `json:"status"`
	SubTotal      float64           `json:"subTotal"`
	TaxTotal      float64           `json:"taxTotal"`
	DiscountTotal float64           `json:"discountTotal"`
	Total         float64           `json:"total"`
	Notes         string            `json:"notes,omitempty"`
	Attachments   []string          `json:"attachments"`
	CreatedBy     int64             `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	Items []Item `json:"items"`

	shared.SoftDelete
}

// Item is a single document line. Amounts are computed server side and
// never taken from the client.
type Item struct {
	ID         int64   `json:"id"`
	DocumentID int64   `json:"documentId"`
	ItemName   string  `json:"itemName"`
	Qty        float64 `json:"qty"`
	Rate       float64 `json:"rate"`
	Unit       string  `json:"unit,omitempty"`
	Discount   float64 `json:"discount"`
	TaxID      *int64  `json:"taxId,omitempty"`
	TaxAmount  float64 `json:"taxAmount"`
	Amount     float64 `json:"amount"`
	LineOrder  int     `json:"lineOrder"`
}

// CreateInput is what the service accepts when issuing a new document.
type CreateInput struct {
	Kind           numbering.DocKind
	BranchID       int64
	ManualNumber   string
	CounterpartyID int64
	DocDate        time.Time
	DueDate        *time.Time
	Status         string
	Notes          string
	Items          []ItemInput
	CreatedBy      int64
}

// UpdateInput mutates an existing document in place, recomputing totals.
type UpdateInput struct {
	ID             int64
	CounterpartyID int64
	DocDate        time.Time
	DueDate        *time.Time
	Status         string
	Notes          string
	Items          []ItemInput
}

// ItemInput is the client-supplied portion of a line.
type ItemInput struct {
	ItemName string
	Qty      float64
	Rate     float64
	Unit     string
	Discount float64
	TaxID    *int64
}
