package taxes

import (
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Kind selects the tax regime a rate belongs to.
type Kind string

const (
	KindVAT Kind = "VAT"
	KindGST Kind = "GST"
)

// Tax is a configured tax rate. VAT carries a single rate; GST splits into
// central and state components that always apply together.
type Tax struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branchId"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	VatRate   float64   `json:"vatRate"`
	CgstRate  float64   `json:"cgstRate"`
	SgstRate  float64   `json:"sgstRate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	shared.SoftDelete
}

// EffectiveRate returns the percentage applied to a line's net amount.
func (t Tax) EffectiveRate() float64 {
	if t.Kind == KindGST {
		return t.CgstRate + t.SgstRate
	}
	return t.VatRate
}
