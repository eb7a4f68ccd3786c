package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles vendor master data logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, v Vendor) (*Vendor, error) {
	if strings.TrimSpace(v.Name) == "" {
		return nil, fmt.Errorf("%w: vendor name is required", shared.ErrValidation)
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id int64) (*Vendor, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid vendor id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Vendor, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, v Vendor) error {
	if v.ID <= 0 {
		return fmt.Errorf("%w: invalid vendor id", shared.ErrValidation)
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: vendor name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, v)
}

func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid vendor id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, id, deletedBy)
}

// Exists reports whether the vendor exists within the given branch.
func (s *Service) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return v.BranchID == branchID, nil
}

// EmailOf returns the vendor's email address, empty when none is stored.
func (s *Service) EmailOf(ctx context.Context, id int64) (string, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return v.Email, nil
}
