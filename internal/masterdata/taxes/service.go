package taxes

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles tax configuration logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, tax Tax) (*Tax, error) {
	if err := s.validate(tax); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, tax)
}

func (s *Service) Get(ctx context.Context, id int64) (*Tax, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid tax id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Tax, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, tax Tax) error {
	if tax.ID <= 0 {
		return fmt.Errorf("%w: invalid tax id", shared.ErrValidation)
	}
	if err := s.validate(tax); err != nil {
		return err
	}
	return s.repo.Update(ctx, tax)
}

func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid tax id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id, deletedBy)
}
