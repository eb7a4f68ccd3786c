package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles customer master data logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, c Customer) (*Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, c Customer) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid customer id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id, deletedBy)
}

// Exists reports whether the customer exists within the given branch. The
// payments and documents flows use it to validate references before writing.
func (s *Service) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return c.BranchID == branchID, nil
}

// EmailOf returns the customer's email address, empty when none is stored.
func (s *Service) EmailOf(ctx context.Context, id int64) (string, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Email, nil
}
