package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryLedgerRepo struct {
	rows   []*Transaction
	nextID int64
}

func (r *memoryLedgerRepo) Insert(ctx context.Context, input PostInput) (*Transaction, error) {
	r.nextID++
	tx := &Transaction{
		ID:              r.nextID,
		BranchID:        input.BranchID,
		AccountID:       input.AccountID,
		Type:            input.Type,
		Amount:          input.Amount,
		PaymentID:       input.PaymentID,
		Reference:       input.Reference,
		TransactionDate: input.TransactionDate,
		Description:     input.Description,
		CustomerID:      input.CustomerID,
		VendorID:        input.VendorID,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       time.Now(),
	}
	r.rows = append(r.rows, tx)
	return tx, nil
}

func (r *memoryLedgerRepo) ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error) {
	var n int64
	for _, tx := range r.rows {
		if tx.PaymentID != nil && *tx.PaymentID == businessPaymentID && !tx.IsReversed {
			tx.IsReversed = true
			n++
		}
	}
	return n, nil
}

func (r *memoryLedgerRepo) ListByAccount(ctx context.Context, branchIDs []int64, accountID int64, page shared.PageRequest) ([]Transaction, int, error) {
	var out []Transaction
	for _, tx := range r.rows {
		if tx.AccountID == accountID {
			out = append(out, *tx)
		}
	}
	return out, len(out), nil
}

func (r *memoryLedgerRepo) BalanceByAccount(ctx context.Context, branchIDs []int64, accountID int64) (*AccountBalance, error) {
	balance := &AccountBalance{AccountID: accountID}
	for _, tx := range r.rows {
		if tx.AccountID != accountID || tx.IsReversed {
			continue
		}
		if tx.Type == Debit {
			balance.DebitTotal += tx.Amount
		} else {
			balance.CreditTotal += tx.Amount
		}
	}
	balance.Balance = balance.DebitTotal - balance.CreditTotal
	return balance, nil
}

func TestPostZeroAmountIsNoOp(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo)

	tx, err := svc.Post(context.Background(), PostInput{BranchID: 1, AccountID: 2, Type: Credit, Amount: 0})
	require.NoError(t, err)
	require.Nil(t, tx)
	require.Empty(t, repo.rows)

	tx, err = svc.Post(context.Background(), PostInput{BranchID: 1, AccountID: 2, Type: Credit, Amount: -5})
	require.NoError(t, err)
	require.Nil(t, tx)
	require.Empty(t, repo.rows)
}

func TestPostValidation(t *testing.T) {
	svc := NewService(&memoryLedgerRepo{})

	cases := []struct {
		name  string
		input PostInput
	}{
		{"missing branch", PostInput{AccountID: 2, Type: Debit, Amount: 10}},
		{"missing account", PostInput{BranchID: 1, Type: Debit, Amount: 10}},
		{"bad type", PostInput{BranchID: 1, AccountID: 2, Type: "TRANSFER", Amount: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Post(context.Background(), tc.input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestPostDefaultsTransactionDate(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo)

	tx, err := svc.Post(context.Background(), PostInput{BranchID: 1, AccountID: 2, Type: Debit, Amount: 10})
	require.NoError(t, err)
	require.False(t, tx.TransactionDate.IsZero())
}

func TestReverseByPaymentFlagsAllLinkedRows(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo)

	paymentID := "PAY-0001"
	for _, in := range []PostInput{
		{BranchID: 1, AccountID: 10, Type: Debit, Amount: 100, PaymentID: &paymentID},
		{BranchID: 1, AccountID: 20, Type: Credit, Amount: 100, PaymentID: &paymentID},
	} {
		_, err := svc.Post(context.Background(), in)
		require.NoError(t, err)
	}

	n, err := svc.ReverseByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// Reversal is idempotent: flagged rows are not flagged twice.
	n, err = svc.ReverseByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	require.Zero(t, n)

	balance, err := svc.BalanceByAccount(context.Background(), []int64{1}, 10)
	require.NoError(t, err)
	require.Zero(t, balance.Balance)
}

func TestReverseByPaymentRequiresID(t *testing.T) {
	svc := NewService(&memoryLedgerRepo{})

	_, err := svc.ReverseByPayment(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrValidation)
}
