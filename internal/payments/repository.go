package payments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Querier is the subset of pgx operations the repository needs, satisfied by
// both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines persistence operations for received payments.
type Repository interface {
	WithTx(tx pgx.Tx) Repository
	Insert(ctx context.Context, p *Payment) (*Payment, error)
	Get(ctx context.Context, id int64) (*Payment, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Payment, int, error)
	MarkReversed(ctx context.Context, id int64) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	SumPaidByInvoice(ctx context.Context, invoiceID int64) (float64, error)
	NumberExists(ctx context.Context, branchID int64, number string) (bool, error)
}

// PGRepository implements Repository over a Querier.
type PGRepository struct {
	db Querier
}

// NewRepository constructs a repository bound to a pool or transaction.
func NewRepository(db Querier) *PGRepository {
	return &PGRepository{db: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *PGRepository) WithTx(tx pgx.Tx) Repository {
	return &PGRepository{db: tx}
}

const paymentColumns = `id, branch_id, customer_id, invoice_id, payment_id, payment_date, posting_date,
	amount, bank_charges, account_id, receivable_account_id, payment_mode, reference, status,
	is_reversed, created_by, is_deleted, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var invoiceID pgtype.Int8
	var reference pgtype.Text
	err := row.Scan(&p.ID, &p.BranchID, &p.CustomerID, &invoiceID, &p.PaymentID, &p.PaymentDate,
		&p.PostingDate, &p.Amount, &p.BankCharges, &p.AccountID, &p.ReceivableAccountID,
		&p.PaymentMode, &reference, &p.Status, &p.IsReversed, &p.CreatedBy, &p.IsDeleted,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if invoiceID.Valid {
		p.InvoiceID = &invoiceID.Int64
	}
	p.Reference = reference.String
	return &p, nil
}

func (r *PGRepository) Insert(ctx context.Context, p *Payment) (*Payment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payments_received (branch_id, customer_id, invoice_id, payment_id, payment_date,
			posting_date, amount, bank_charges, account_id, receivable_account_id, payment_mode,
			reference, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING `+paymentColumns,
		p.BranchID, p.CustomerID, p.InvoiceID, p.PaymentID, p.PaymentDate, p.PostingDate,
		p.Amount, p.BankCharges, p.AccountID, p.ReceivableAccountID, p.PaymentMode,
		p.Reference, p.Status, p.CreatedBy)
	return scanPayment(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments_received
		WHERE id = $1 AND NOT is_deleted`, id)
	return scanPayment(row)
}

func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Payment, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM payments_received
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR payment_id ILIKE $2 OR payment_mode ILIKE $2 OR reference ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments_received
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR payment_id ILIKE $2 OR payment_mode ILIKE $2 OR reference ILIKE $2)
		ORDER BY payment_date DESC, id DESC
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) MarkReversed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments_received SET is_reversed = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_reversed AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments_received SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumPaidByInvoice totals the effective paid amount for the invoice.
// Reversed and deleted rows never count, draft rows never count.
func (r *PGRepository) SumPaidByInvoice(ctx context.Context, invoiceID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments_received
		WHERE invoice_id = $1 AND status = 'PAID' AND NOT is_reversed AND NOT is_deleted`,
		invoiceID).Scan(&total)
	return total, err
}

// NumberExists checks payment_id uniqueness per branch, including reversed
// and soft-deleted rows so a number is never reissued.
func (r *PGRepository) NumberExists(ctx context.Context, branchID int64, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM payments_received WHERE branch_id = $1 AND payment_id = $2)`,
		branchID, number).Scan(&exists)
	return exists, err
}

var _ Repository = (*PGRepository)(nil)
