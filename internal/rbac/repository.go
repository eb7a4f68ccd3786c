package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads permission rows for a user.
type Repository interface {
	LoadPermissionSet(ctx context.Context, userID int64) (*PermissionSet, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// LoadPermissionSet reads the user's permission rows into a capability table.
func (r *PGRepository) LoadPermissionSet(ctx context.Context, userID int64) (*PermissionSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT panel, module, full_access, can_create, can_read, can_update, can_delete
		FROM user_permissions
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := &PermissionSet{
		PanelFullAccess: make(map[string]bool),
		Capabilities:    make(map[Capability]bool),
	}
	for rows.Next() {
		var panel, module string
		var fullAccess, canCreate, canRead, canUpdate, canDelete bool
		if err := rows.Scan(&panel, &module, &fullAccess, &canCreate, &canRead, &canUpdate, &canDelete); err != nil {
			return nil, err
		}
		if fullAccess {
			set.PanelFullAccess[panel] = true
		}
		if canCreate {
			set.Capabilities[Capability{Module: module, Action: ActionCreate}] = true
		}
		if canRead {
			set.Capabilities[Capability{Module: module, Action: ActionRead}] = true
		}
		if canUpdate {
			set.Capabilities[Capability{Module: module, Action: ActionUpdate}] = true
		}
		if canDelete {
			set.Capabilities[Capability{Module: module, Action: ActionDelete}] = true
		}
	}
	return set, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
