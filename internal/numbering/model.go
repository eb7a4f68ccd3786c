package numbering

import "time"

// Mode selects how document numbers are produced.
type Mode string

const (
	// ModeAuto issues the next padded sequential id from the counter.
	ModeAuto Mode = "AUTO"
	// ModeManual accepts a caller-supplied id and only checks uniqueness.
	ModeManual Mode = "MANUAL"
)

// DocKind identifies the numbered document family.
type DocKind string

const (
	KindQuote         DocKind = "QUOTE"
	KindSaleOrder     DocKind = "SALE_ORDER"
	KindPurchaseOrder DocKind = "PURCHASE_ORDER"
	KindInvoice       DocKind = "INVOICE"
	KindBill          DocKind = "BILL"
	KindCreditNote    DocKind = "CREDIT_NOTE"
	KindVendorCredit  DocKind = "VENDOR_CREDIT"
	KindExpense       DocKind = "EXPENSE"
	KindPayment       DocKind = "PAYMENT"
)

// Setting is the per-branch, per-kind counter row.
//
// NextNumberRaw is the zero-padded rendering of NextNumber; its length defines
// the padding width for every future id. The width never shrinks, even when
// NextNumber is later reset below the original digit count.
type Setting struct {
	ID            int64     `json:"id"`
	BranchID      int64     `json:"branchId"`
	DocKind       DocKind   `json:"docKind"`
	Prefix        string    `json:"prefix"`
	NextNumber    int64     `json:"nextNumber"`
	NextNumberRaw string    `json:"nextNumberRaw"`
	Mode          Mode      `json:"mode"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Width returns the padding width currently in force.
func (s Setting) Width() int {
	return len(s.NextNumberRaw)
}

// Issued is one successful allocation.
type Issued struct {
	Number   string
	Sequence int64
}
