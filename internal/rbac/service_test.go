package rbac

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type countingRepo struct {
	set   *PermissionSet
	loads int
}

func (r *countingRepo) LoadPermissionSet(ctx context.Context, userID int64) (*PermissionSet, error) {
	r.loads++
	copied := *r.set
	copied.Capabilities = make(map[Capability]bool, len(r.set.Capabilities))
	for k, v := range r.set.Capabilities {
		copied.Capabilities[k] = v
	}
	return &copied, nil
}

func permissionSet(panels map[string]bool, caps ...Capability) *PermissionSet {
	set := &PermissionSet{
		PanelFullAccess: panels,
		Capabilities:    make(map[Capability]bool),
	}
	for _, c := range caps {
		set.Capabilities[c] = true
	}
	return set
}

func newRBACService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, client)
}

func userIdentity(id int64) *shared.Identity {
	return &shared.Identity{UserID: id, Role: shared.RoleUser}
}

func TestCheckCompanyAdminBypassesEverything(t *testing.T) {
	repo := &countingRepo{set: permissionSet(nil)}
	svc := newRBACService(t, repo)

	allowed, err := svc.Check(context.Background(),
		&shared.Identity{UserID: 1, Role: shared.RoleCompanyAdmin},
		"accounting", "payments", ActionDelete)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, repo.loads)
}

func TestCheckNilIdentity(t *testing.T) {
	svc := newRBACService(t, &countingRepo{set: permissionSet(nil)})

	_, err := svc.Check(context.Background(), nil, "accounting", "payments", ActionRead)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCheckModuleActionCell(t *testing.T) {
	repo := &countingRepo{set: permissionSet(nil,
		Capability{Module: "invoices", Action: ActionRead},
		Capability{Module: "invoices", Action: ActionCreate},
	)}
	svc := newRBACService(t, repo)

	allowed, err := svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionCreate)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionDelete)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCheckPanelFullAccessShortCircuits(t *testing.T) {
	repo := &countingRepo{set: permissionSet(map[string]bool{"accounting": true})}
	svc := newRBACService(t, repo)

	allowed, err := svc.Check(context.Background(), userIdentity(7), "accounting", "payments", ActionDelete)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Check(context.Background(), userIdentity(7), "admin", "users", ActionRead)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCheckCachesResolvedSet(t *testing.T) {
	repo := &countingRepo{set: permissionSet(nil,
		Capability{Module: "invoices", Action: ActionRead},
	)}
	svc := newRBACService(t, repo)

	for i := 0; i < 3; i++ {
		allowed, err := svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionRead)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	require.Equal(t, 1, repo.loads)
}

func TestInvalidateDropsCachedSet(t *testing.T) {
	repo := &countingRepo{set: permissionSet(nil,
		Capability{Module: "invoices", Action: ActionRead},
	)}
	svc := newRBACService(t, repo)

	_, err := svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionRead)
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads)

	require.NoError(t, svc.Invalidate(context.Background(), 7))

	// Permission change takes effect on the next check.
	repo.set = permissionSet(nil)
	allowed, err := svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionRead)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 2, repo.loads)
}

func TestCheckWorksWithoutCache(t *testing.T) {
	repo := &countingRepo{set: permissionSet(nil,
		Capability{Module: "invoices", Action: ActionRead},
	)}
	svc := NewService(repo, nil)

	allowed, err := svc.Check(context.Background(), userIdentity(7), "accounting", "invoices", ActionRead)
	require.NoError(t, err)
	require.True(t, allowed)
}
