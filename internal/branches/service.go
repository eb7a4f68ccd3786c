package branches

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service handles branch business logic and access resolution.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve computes the set of branch ids the user may act on. It is the single
// authorization choke-point for every branch-scoped endpoint.
//
// CompanyAdmin owns every branch it created; User is pinned to exactly one.
// When requestedBranchID is non-zero the returned set narrows to that one id,
// or the call fails with a forbidden error if the branch is not in the set.
func (s *Service) Resolve(ctx context.Context, userID int64, requestedBranchID int64) (*Access, error) {
	user, err := s.repo.FindAccessUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", shared.ErrUnauthorized)
	}

	access := &Access{User: user}
	switch user.Role {
	case shared.RoleCompanyAdmin:
		ids, err := s.repo.IDsByCompanyAdmin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		access.BranchIDs = ids
	case shared.RoleUser:
		if user.BranchID == nil {
			return nil, fmt.Errorf("%w: user has no assigned branch", shared.ErrValidation)
		}
		access.BranchIDs = []int64{*user.BranchID}
	default:
		return nil, fmt.Errorf("%w: unknown role", shared.ErrForbidden)
	}

	if requestedBranchID != 0 {
		if !access.Allows(requestedBranchID) {
			return nil, fmt.Errorf("%w: branch %d not accessible", shared.ErrForbidden, requestedBranchID)
		}
		access.BranchIDs = []int64{requestedBranchID}
	}
	return access, nil
}

// ResolveBranch is a convenience wrapper for callers that only need the
// access check on a single branch.
func (s *Service) ResolveBranch(ctx context.Context, userID, branchID int64) error {
	_, err := s.Resolve(ctx, userID, branchID)
	return err
}

// ResolveBranchIDs returns the allowed branch ids, narrowed to the requested
// branch when one is supplied.
func (s *Service) ResolveBranchIDs(ctx context.Context, userID, requestedBranchID int64) ([]int64, error) {
	access, err := s.Resolve(ctx, userID, requestedBranchID)
	if err != nil {
		return nil, err
	}
	return access.BranchIDs, nil
}

// Create registers a new branch under the calling CompanyAdmin.
func (s *Service) Create(ctx context.Context, identity *shared.Identity, branch Branch) (*Branch, error) {
	if identity.Role != shared.RoleCompanyAdmin {
		return nil, fmt.Errorf("%w: only a company admin may create branches", shared.ErrForbidden)
	}
	if strings.TrimSpace(branch.Name) == "" {
		return nil, fmt.Errorf("%w: branch name is required", shared.ErrValidation)
	}
	branch.CompanyAdminID = identity.UserID
	return s.repo.Create(ctx, branch)
}

// Get returns a branch the caller may access.
func (s *Service) Get(ctx context.Context, identity *shared.Identity, id int64) (*Branch, error) {
	if _, err := s.Resolve(ctx, identity.UserID, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// List returns the caller's accessible branches.
func (s *Service) List(ctx context.Context, identity *shared.Identity) ([]Branch, error) {
	access, err := s.Resolve(ctx, identity.UserID, 0)
	if err != nil {
		return nil, err
	}
	if identity.Role == shared.RoleCompanyAdmin {
		return s.repo.List(ctx, identity.UserID)
	}
	out := make([]Branch, 0, len(access.BranchIDs))
	for _, id := range access.BranchIDs {
		b, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

// Update persists branch changes after an access check.
func (s *Service) Update(ctx context.Context, identity *shared.Identity, branch Branch) error {
	if _, err := s.Resolve(ctx, identity.UserID, branch.ID); err != nil {
		return err
	}
	if strings.TrimSpace(branch.Name) == "" {
		return fmt.Errorf("%w: branch name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, branch)
}

// Delete soft-deletes a branch.
func (s *Service) Delete(ctx context.Context, identity *shared.Identity, id int64) error {
	if identity.Role != shared.RoleCompanyAdmin {
		return fmt.Errorf("%w: only a company admin may delete branches", shared.ErrForbidden)
	}
	if _, err := s.Resolve(ctx, identity.UserID, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id, identity.UserID)
}
