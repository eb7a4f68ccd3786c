package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryUserRepo struct {
	users     map[int64]*User
	hashes    map[int64]string
	byEmail   map[string]int64
	nextID    int64
	passwords int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users:   make(map[int64]*User),
		hashes:  make(map[int64]string),
		byEmail: make(map[string]int64),
	}
}

func (r *memoryUserRepo) Create(ctx context.Context, u User, passwordHash string) (*User, error) {
	if _, taken := r.byEmail[u.Email]; taken {
		return nil, shared.ErrDuplicate
	}
	r.nextID++
	u.ID = r.nextID
	u.IsActive = true
	r.users[u.ID] = &u
	r.hashes[u.ID] = passwordHash
	r.byEmail[u.Email] = u.ID
	copied := u
	return &copied, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok || u.IsDeleted {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]User, int, error) {
	var out []User
	for _, u := range r.users {
		if !u.IsDeleted {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (r *memoryUserRepo) Update(ctx context.Context, u User) error {
	current, ok := r.users[u.ID]
	if !ok || current.IsDeleted {
		return shared.ErrNotFound
	}
	u.CreatedAt = current.CreatedAt
	r.users[u.ID] = &u
	return nil
}

func (r *memoryUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	r.hashes[id] = passwordHash
	r.passwords++
	return nil
}

func (r *memoryUserRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	u, ok := r.users[id]
	if !ok || u.IsDeleted {
		return shared.ErrNotFound
	}
	u.IsDeleted = true
	return nil
}

type recordingInvalidator struct {
	invalidated []int64
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID int64) error {
	r.invalidated = append(r.invalidated, userID)
	return nil
}

func validUserInput() CreateInput {
	branchID := int64(1)
	return CreateInput{
		Username: "jdoe",
		Email:    "JDoe@Example.com",
		Password: "s3cret-pass",
		Role:     shared.RoleUser,
		BranchID: &branchID,
	}
}

func TestCreateNormalizesEmailAndHashesPassword(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validUserInput())
	require.NoError(t, err)
	require.Equal(t, "jdoe@example.com", created.Email)
	require.NotEmpty(t, repo.hashes[created.ID])
	require.NotEqual(t, "s3cret-pass", repo.hashes[created.ID])
}

func TestCreateRoleBranchRules(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), nil)
	branchID := int64(1)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"admin with branch", func(in *CreateInput) { in.Role = shared.RoleCompanyAdmin }},
		{"user without branch", func(in *CreateInput) { in.BranchID = nil }},
		{"unknown role", func(in *CreateInput) { in.Role = "SUPERVISOR"; in.BranchID = &branchID }},
		{"short password", func(in *CreateInput) { in.Password = "short" }},
		{"blank username", func(in *CreateInput) { in.Username = " " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validUserInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateCompanyAdminWithoutBranch(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), nil)

	input := validUserInput()
	input.Role = shared.RoleCompanyAdmin
	input.BranchID = nil

	created, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Nil(t, created.BranchID)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), nil)

	_, err := svc.Create(context.Background(), validUserInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validUserInput())
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateInvalidatesPermissions(t *testing.T) {
	repo := newMemoryUserRepo()
	invalidator := &recordingInvalidator{}
	svc := NewService(repo, invalidator)

	created, err := svc.Create(context.Background(), validUserInput())
	require.NoError(t, err)

	branchID := int64(2)
	err = svc.Update(context.Background(), UpdateInput{
		ID:       created.ID,
		Username: "jdoe",
		Email:    created.Email,
		Role:     shared.RoleUser,
		BranchID: &branchID,
		IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{created.ID}, invalidator.invalidated)

	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, branchID, *stored.BranchID)
}

func TestUpdatePasswordOnlyWhenProvided(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), validUserInput())
	require.NoError(t, err)

	branchID := int64(1)
	base := UpdateInput{
		ID: created.ID, Username: "jdoe", Email: created.Email,
		Role: shared.RoleUser, BranchID: &branchID, IsActive: true,
	}
	require.NoError(t, svc.Update(context.Background(), base))
	require.Zero(t, repo.passwords)

	base.Password = "fresh-password"
	require.NoError(t, svc.Update(context.Background(), base))
	require.Equal(t, 1, repo.passwords)

	base.Password = "short"
	require.ErrorIs(t, svc.Update(context.Background(), base), shared.ErrValidation)
}

func TestDeleteInvalidatesPermissions(t *testing.T) {
	repo := newMemoryUserRepo()
	invalidator := &recordingInvalidator{}
	svc := NewService(repo, invalidator)

	created, err := svc.Create(context.Background(), validUserInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, 1))
	require.Equal(t, []int64{created.ID}, invalidator.invalidated)

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
