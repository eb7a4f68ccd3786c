package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// maxParentDepth bounds the parent-chain walk so a corrupt chain cannot spin.
const maxParentDepth = 32

// Service handles chart-of-accounts business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(account Account) error {
	if strings.TrimSpace(account.Code) == "" {
		return fmt.Errorf("%w: account code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: account name is required", shared.ErrValidation)
	}
	switch account.Type {
	case TypeAsset, TypeLiability, TypeEquity, TypeIncome, TypeExpense:
	default:
		return fmt.Errorf("%w: invalid account type", shared.ErrValidation)
	}
	return nil
}

// ensureNoCycle walks the full parent chain from the proposed parent and
// rejects any cycle, not just a direct self-parent.
func (s *Service) ensureNoCycle(ctx context.Context, accountID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	current := *parentID
	for depth := 0; depth < maxParentDepth; depth++ {
		if current == accountID {
			return fmt.Errorf("%w: account cannot be its own ancestor", shared.ErrValidation)
		}
		next, err := s.repo.ParentOf(ctx, current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return fmt.Errorf("%w: parent account not found", shared.ErrNotFound)
			}
			return err
		}
		if next == nil {
			return nil
		}
		current = *next
	}
	return fmt.Errorf("%w: parent chain too deep", shared.ErrValidation)
}

// Create inserts a new account after parent validation.
func (s *Service) Create(ctx context.Context, account Account) (*Account, error) {
	if err := s.validate(account); err != nil {
		return nil, err
	}
	if account.ParentAccountID != nil {
		parent, err := s.repo.Get(ctx, *account.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent account not found", shared.ErrNotFound)
		}
		if parent.BranchID != account.BranchID {
			return nil, fmt.Errorf("%w: parent account belongs to another branch", shared.ErrValidation)
		}
	}
	return s.repo.Create(ctx, account)
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid account id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of accounts across the allowed branches.
func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Account, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

// Update persists account changes after cycle validation.
func (s *Service) Update(ctx context.Context, account Account) error {
	if account.ID <= 0 {
		return fmt.Errorf("%w: invalid account id", shared.ErrValidation)
	}
	if err := s.validate(account); err != nil {
		return err
	}
	if err := s.ensureNoCycle(ctx, account.ID, account.ParentAccountID); err != nil {
		return err
	}
	return s.repo.Update(ctx, account)
}

// Delete soft-deletes an account.
func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid account id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id, deletedBy)
}

// Exists reports whether the account exists within the given branch. The
// payment workflow uses it to validate posting targets.
func (s *Service) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.BranchID == branchID, nil
}
