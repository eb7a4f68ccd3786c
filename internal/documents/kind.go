package documents

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// CounterpartySide tells which master data entity a document kind bills.
type CounterpartySide string

const (
	SideCustomer CounterpartySide = "CUSTOMER"
	SideVendor   CounterpartySide = "VENDOR"
)

// kindRule captures the per-kind behavior of the generic engine: who the
// counterparty is, which statuses are legal, and whether a number setting
// must exist before anything can be issued.
type kindRule struct {
	Side            CounterpartySide
	Statuses        []string
	DefaultStatus   string
	SettingRequired bool
}

var kindRules = map[numbering.DocKind]kindRule{
	numbering.KindQuote: {
		Side:          SideCustomer,
		Statuses:      []string{"DRAFT", "SENT", "ACCEPTED", "DECLINED", "EXPIRED"},
		DefaultStatus: "DRAFT",
	},
	numbering.KindSaleOrder: {
		Side:          SideCustomer,
		Statuses:      []string{"DRAFT", "CONFIRMED", "FULFILLED", "CANCELLED"},
		DefaultStatus: "DRAFT",
	},
	numbering.KindPurchaseOrder: {
		Side:          SideVendor,
		Statuses:      []string{"DRAFT", "ISSUED", "RECEIVED", "CANCELLED"},
		DefaultStatus: "DRAFT",
	},
	numbering.KindInvoice: {
		Side:            SideCustomer,
		Statuses:        []string{"DRAFT", "SENT", "PARTIALLY_PAID", "PAID", "OVERDUE", "VOID"},
		DefaultStatus:   "DRAFT",
		SettingRequired: true,
	},
	numbering.KindBill: {
		Side:          SideVendor,
		Statuses:      []string{"DRAFT", "OPEN", "PARTIALLY_PAID", "PAID", "VOID"},
		DefaultStatus: "DRAFT",
	},
	numbering.KindCreditNote: {
		Side:            SideCustomer,
		Statuses:        []string{"DRAFT", "OPEN", "APPLIED", "VOID"},
		DefaultStatus:   "DRAFT",
		SettingRequired: true,
	},
	numbering.KindVendorCredit: {
		Side:          SideVendor,
		Statuses:      []string{"DRAFT", "OPEN", "APPLIED", "VOID"},
		DefaultStatus: "DRAFT",
	},
	numbering.KindExpense: {
		Side:          SideVendor,
		Statuses:      []string{"RECORDED", "REIMBURSED"},
		DefaultStatus: "RECORDED",
	},
}

func ruleFor(kind numbering.DocKind) (kindRule, error) {
	rule, ok := kindRules[kind]
	if !ok {
		return kindRule{}, fmt.Errorf("%w: unknown document kind %q", shared.ErrValidation, kind)
	}
	return rule, nil
}

func kindLabel(kind numbering.DocKind) string {
	switch kind {
	case numbering.KindQuote:
		return "Quote"
	case numbering.KindSaleOrder:
		return "Sale order"
	case numbering.KindPurchaseOrder:
		return "Purchase order"
	case numbering.KindInvoice:
		return "Invoice"
	case numbering.KindBill:
		return "Bill"
	case numbering.KindCreditNote:
		return "Credit note"
	case numbering.KindVendorCredit:
		return "Vendor credit"
	case numbering.KindExpense:
		return "Expense"
	default:
		return "Document"
	}
}

func (r kindRule) validStatus(status string) bool {
	for _, s := range r.Statuses {
		if s == status {
			return true
		}
	}
	return false
}
