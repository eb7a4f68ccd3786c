package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Querier is the subset of pgx operations the repository needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, which lets the payment workflow bind
// the repository to its own transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines persistence operations for ledger transactions.
type Repository interface {
	Insert(ctx context.Context, input PostInput) (*Transaction, error)
	ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error)
	ListByAccount(ctx context.Context, branchIDs []int64, accountID int64, page shared.PageRequest) ([]Transaction, int, error)
	BalanceByAccount(ctx context.Context, branchIDs []int64, accountID int64) (*AccountBalance, error)
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
func (r *PGRepository) WithTx(tx pgx.Tx) *PGRepository {
	return &PGRepository{db: tx}
}

const transactionColumns = `id, branch_id, account_id, transaction_type, amount, payment_id, reference,
	transaction_date, description, customer_id, vendor_id, created_by, is_reversed, is_deleted, created_at, updated_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	var paymentID, reference, description pgtype.Text
	var customerID, vendorID pgtype.Int8
	err := row.Scan(
		&t.ID, &t.BranchID, &t.AccountID, &t.Type, &t.Amount, &paymentID, &reference,
		&t.TransactionDate, &description, &customerID, &vendorID, &t.CreatedBy,
		&t.IsReversed, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		t.PaymentID = &paymentID.String
	}
	if reference.Valid {
		t.Reference = &reference.String
	}
	if description.Valid {
		t.Description = &description.String
	}
	if customerID.Valid {
		t.CustomerID = &customerID.Int64
	}
	if vendorID.Valid {
		t.VendorID = &vendorID.Int64
	}
	return &t, nil
}

// Insert appends one transaction row.
func (r *PGRepository) Insert(ctx context.Context, input PostInput) (*Transaction, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO transactions (
			branch_id, account_id, transaction_type, amount, payment_id, reference,
			transaction_date, description, customer_id, vendor_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING `+transactionColumns,
		input.BranchID, input.AccountID, input.Type, input.Amount, input.PaymentID, input.Reference,
		input.TransactionDate, input.Description, input.CustomerID, input.VendorID, input.CreatedBy)
	return scanTransaction(row)
}

// ReverseByPayment flags every non-reversed row linked to the business payment
// id, returning the number of rows flipped.
func (r *PGRepository) ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET is_reversed = TRUE, updated_at = NOW()
		WHERE payment_id = $1 AND NOT is_reversed AND NOT is_deleted`, businessPaymentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByAccount returns a page of non-deleted transactions for the account
// across the allowed branches.
func (r *PGRepository) ListByAccount(ctx context.Context, branchIDs []int64, accountID int64, page shared.PageRequest) ([]Transaction, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE branch_id = ANY($1) AND account_id = $2 AND NOT is_deleted`,
		branchIDs, accountID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE branch_id = ANY($1) AND account_id = $2 AND NOT is_deleted
		ORDER BY transaction_date DESC, id DESC
		LIMIT $3 OFFSET $4`,
		branchIDs, accountID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// BalanceByAccount sums debits and credits over non-reversed, non-deleted rows.
func (r *PGRepository) BalanceByAccount(ctx context.Context, branchIDs []int64, accountID int64) (*AccountBalance, error) {
	bal := AccountBalance{AccountID: accountID}
	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'DEBIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'CREDIT'), 0)
		FROM transactions
		WHERE branch_id = ANY($1) AND account_id = $2 AND NOT is_reversed AND NOT is_deleted`,
		branchIDs, accountID).Scan(&bal.DebitTotal, &bal.CreditTotal)
	if err != nil {
		return nil, err
	}
	bal.Balance = bal.DebitTotal - bal.CreditTotal
	return &bal, nil
}

var _ Repository = (*PGRepository)(nil)
