package branches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryBranchRepo struct {
	branches map[int64]*Branch
	users    map[int64]*AccessUser
	nextID   int64
}

func newMemoryBranchRepo() *memoryBranchRepo {
	return &memoryBranchRepo{
		branches: make(map[int64]*Branch),
		users:    make(map[int64]*AccessUser),
	}
}

func (r *memoryBranchRepo) Create(ctx context.Context, branch Branch) (*Branch, error) {
	r.nextID++
	branch.ID = r.nextID
	r.branches[branch.ID] = &branch
	copied := branch
	return &copied, nil
}

func (r *memoryBranchRepo) Get(ctx context.Context, id int64) (*Branch, error) {
	b, ok := r.branches[id]
	if !ok || b.IsDeleted {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *memoryBranchRepo) List(ctx context.Context, companyAdminID int64) ([]Branch, error) {
	var out []Branch
	for _, b := range r.branches {
		if b.CompanyAdminID == companyAdminID && !b.IsDeleted {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memoryBranchRepo) IDsByCompanyAdmin(ctx context.Context, companyAdminID int64) ([]int64, error) {
	var out []int64
	for _, b := range r.branches {
		if b.CompanyAdminID == companyAdminID && !b.IsDeleted {
			out = append(out, b.ID)
		}
	}
	return out, nil
}

func (r *memoryBranchRepo) Update(ctx context.Context, branch Branch) error {
	if _, ok := r.branches[branch.ID]; !ok {
		return shared.ErrNotFound
	}
	r.branches[branch.ID] = &branch
	return nil
}

func (r *memoryBranchRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	b, ok := r.branches[id]
	if !ok || b.IsDeleted {
		return shared.ErrNotFound
	}
	b.IsDeleted = true
	return nil
}

func (r *memoryBranchRepo) FindAccessUser(ctx context.Context, userID int64) (*AccessUser, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

// Admin 1 owns branches 1 and 2; user 2 is pinned to branch 1; user 3 has no
// branch assignment.
func newBranchFixture() (*Service, *memoryBranchRepo) {
	repo := newMemoryBranchRepo()
	repo.users[1] = &AccessUser{ID: 1, Role: shared.RoleCompanyAdmin}
	branchID := int64(1)
	repo.users[2] = &AccessUser{ID: 2, Role: shared.RoleUser, BranchID: &branchID}
	repo.users[3] = &AccessUser{ID: 3, Role: shared.RoleUser}
	_, _ = repo.Create(context.Background(), Branch{Name: "HQ", CompanyAdminID: 1})
	_, _ = repo.Create(context.Background(), Branch{Name: "North", CompanyAdminID: 1})
	return NewService(repo), repo
}

func TestResolveAccessMatrix(t *testing.T) {
	svc, _ := newBranchFixture()

	cases := []struct {
		name      string
		userID    int64
		requested int64
		wantIDs   []int64
		wantErr   error
	}{
		{"admin sees all owned branches", 1, 0, []int64{1, 2}, nil},
		{"admin narrows to one branch", 1, 2, []int64{2}, nil},
		{"admin cannot reach foreign branch", 1, 9, nil, shared.ErrForbidden},
		{"user pinned to assigned branch", 2, 0, []int64{1}, nil},
		{"user may request own branch", 2, 1, []int64{1}, nil},
		{"user cannot cross branches", 2, 2, nil, shared.ErrForbidden},
		{"user without branch", 3, 0, nil, shared.ErrValidation},
		{"unknown user", 99, 0, nil, shared.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := svc.ResolveBranchIDs(context.Background(), tc.userID, tc.requested)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.ElementsMatch(t, tc.wantIDs, ids)
		})
	}
}

func TestCreateRequiresCompanyAdmin(t *testing.T) {
	svc, _ := newBranchFixture()

	_, err := svc.Create(context.Background(), &shared.Identity{UserID: 2, Role: shared.RoleUser}, Branch{Name: "South"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	b, err := svc.Create(context.Background(), &shared.Identity{UserID: 1, Role: shared.RoleCompanyAdmin}, Branch{Name: "South"})
	require.NoError(t, err)
	require.Equal(t, int64(1), b.CompanyAdminID)
}

func TestCreateRequiresName(t *testing.T) {
	svc, _ := newBranchFixture()

	_, err := svc.Create(context.Background(), &shared.Identity{UserID: 1, Role: shared.RoleCompanyAdmin}, Branch{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc, repo := newBranchFixture()

	err := svc.Delete(context.Background(), &shared.Identity{UserID: 2, Role: shared.RoleUser}, 1)
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(context.Background(), &shared.Identity{UserID: 1, Role: shared.RoleCompanyAdmin}, 1)
	require.NoError(t, err)
	require.True(t, repo.branches[1].IsDeleted)
}
