package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// InvoiceInfo is the slice of an invoice the reconciliation step needs.
type InvoiceInfo struct {
	ID         int64
	BranchID   int64
	CustomerID int64
	Total      float64
	Status     string
}

// Invoices reads and restates invoices during payment mutations.
type Invoices interface {
	WithTx(tx pgx.Tx) Invoices
	Get(ctx context.Context, id int64) (*InvoiceInfo, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// PGInvoices implements Invoices against the documents table.
type PGInvoices struct {
	db Querier
}

// NewInvoices constructs an invoice accessor bound to a pool or transaction.
func NewInvoices(db Querier) *PGInvoices {
	return &PGInvoices{db: db}
}

// WithTx returns a copy bound to the transaction.
func (r *PGInvoices) WithTx(tx pgx.Tx) Invoices {
	return &PGInvoices{db: tx}
}

func (r *PGInvoices) Get(ctx context.Context, id int64) (*InvoiceInfo, error) {
	var inv InvoiceInfo
	err := r.db.QueryRow(ctx, `
		SELECT id, branch_id, customer_id, total, status FROM documents
		WHERE id = $1 AND kind = 'INVOICE' AND NOT is_deleted`, id).
		Scan(&inv.ID, &inv.BranchID, &inv.CustomerID, &inv.Total, &inv.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PGInvoices) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE documents SET status = $2, updated_at = NOW()
		WHERE id = $1 AND kind = 'INVOICE' AND NOT is_deleted`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Invoices = (*PGInvoices)(nil)
