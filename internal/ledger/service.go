package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service is the only writer of ledger transactions.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Post appends one immutable transaction row.
//
// A zero or negative amount is a silent no-op: the caller's workflows round
// optional charges (bank fees and the like) through here unconditionally, and
// they must never produce ledger noise. The debit==credit batch invariant is
// the caller's responsibility; the payment workflow holds it by construction.
func (s *Service) Post(ctx context.Context, input PostInput) (*Transaction, error) {
	if input.Amount <= 0 {
		return nil, nil
	}
	if input.BranchID == 0 {
		return nil, fmt.Errorf("%w: branch id is required", shared.ErrValidation)
	}
	if input.AccountID == 0 {
		return nil, fmt.Errorf("%w: account id is required", shared.ErrValidation)
	}
	if input.Type != Debit && input.Type != Credit {
		return nil, fmt.Errorf("%w: transaction type must be DEBIT or CREDIT", shared.ErrValidation)
	}
	if input.TransactionDate.IsZero() {
		input.TransactionDate = time.Now().UTC()
	}
	return s.repo.Insert(ctx, input)
}

// ReverseByPayment flags every non-reversed transaction linked to the business
// payment id. Rows are never deleted.
func (s *Service) ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error) {
	if businessPaymentID == "" {
		return 0, fmt.Errorf("%w: payment id is required", shared.ErrValidation)
	}
	return s.repo.ReverseByPayment(ctx, businessPaymentID)
}

// ListByAccount returns a page of transactions for the account.
func (s *Service) ListByAccount(ctx context.Context, branchIDs []int64, accountID int64, page shared.PageRequest) ([]Transaction, int, error) {
	if accountID == 0 {
		return nil, 0, fmt.Errorf("%w: account id is required", shared.ErrValidation)
	}
	return s.repo.ListByAccount(ctx, branchIDs, accountID, page)
}

// BalanceByAccount aggregates the account's non-reversed activity.
func (s *Service) BalanceByAccount(ctx context.Context, branchIDs []int64, accountID int64) (*AccountBalance, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("%w: account id is required", shared.ErrValidation)
	}
	return s.repo.BalanceByAccount(ctx, branchIDs, accountID)
}
