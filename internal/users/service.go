package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// PermissionInvalidator drops cached effective permissions after a role or
// branch change.
type PermissionInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// Service handles user provisioning and assignment.
type Service struct {
	repo  Repository
	perms PermissionInvalidator
}

// NewService builds a Service instance.
func NewService(repo Repository, perms PermissionInvalidator) *Service {
	return &Service{repo: repo, perms: perms}
}

func validateRoleBranch(role shared.Role, branchID *int64) error {
	switch role {
	case shared.RoleCompanyAdmin:
		if branchID != nil {
			return fmt.Errorf("%w: a company admin is not pinned to a branch", shared.ErrValidation)
		}
	case shared.RoleUser:
		if branchID == nil || *branchID <= 0 {
			return fmt.Errorf("%w: a user must be assigned to a branch", shared.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: role must be COMPANY_ADMIN or USER", shared.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	if strings.TrimSpace(input.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if err := validateRoleBranch(input.Role, input.BranchID); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, User{
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Role:     input.Role,
		BranchID: input.BranchID,
	}, hash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]User, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, input UpdateInput) error {
	if input.ID <= 0 {
		return fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if err := validateRoleBranch(input.Role, input.BranchID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, User{
		ID:       input.ID,
		Username: strings.TrimSpace(input.Username),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Role:     input.Role,
		BranchID: input.BranchID,
		IsActive: input.IsActive,
	}); err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return err
	}

	if input.Password != "" {
		if len(input.Password) < 8 {
			return fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
		}
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return err
		}
		if err := s.repo.UpdatePassword(ctx, input.ID, hash); err != nil {
			return err
		}
	}

	if s.perms != nil {
		if err := s.perms.Invalidate(ctx, input.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	if err := s.repo.SoftDelete(ctx, id, deletedBy); err != nil {
		return err
	}
	if s.perms != nil {
		return s.perms.Invalidate(ctx, id)
	}
	return nil
}
