package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for branches.
type Repository interface {
	Create(ctx context.Context, branch Branch) (*Branch, error)
	Get(ctx context.Context, id int64) (*Branch, error)
	List(ctx context.Context, companyAdminID int64) ([]Branch, error)
	IDsByCompanyAdmin(ctx context.Context, companyAdminID int64) ([]int64, error)
	Update(ctx context.Context, branch Branch) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	FindAccessUser(ctx context.Context, userID int64) (*AccessUser, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const branchColumns = `id, name, company_admin_id, address, phone, is_deleted, created_at, updated_at`

func scanBranch(row pgx.Row) (*Branch, error) {
	var b Branch
	var address, phone pgtype.Text
	err := row.Scan(&b.ID, &b.Name, &b.CompanyAdminID, &address, &phone, &b.IsDeleted, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if address.Valid {
		b.Address = &address.String
	}
	if phone.Valid {
		b.Phone = &phone.String
	}
	return &b, nil
}

// Create inserts a branch.
func (r *PGRepository) Create(ctx context.Context, branch Branch) (*Branch, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO branches (name, company_admin_id, address, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+branchColumns,
		branch.Name, branch.CompanyAdminID, branch.Address, branch.Phone)
	return scanBranch(row)
}

// Get fetches a non-deleted branch by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Branch, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = $1 AND NOT is_deleted`, id)
	return scanBranch(row)
}

// List returns all non-deleted branches owned by the company admin.
func (r *PGRepository) List(ctx context.Context, companyAdminID int64) ([]Branch, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE company_admin_id = $1 AND NOT is_deleted ORDER BY name`,
		companyAdminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// IDsByCompanyAdmin returns non-deleted branch ids owned by the company admin.
func (r *PGRepository) IDsByCompanyAdmin(ctx context.Context, companyAdminID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM branches WHERE company_admin_id = $1 AND NOT is_deleted ORDER BY id`,
		companyAdminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update persists mutable branch fields.
func (r *PGRepository) Update(ctx context.Context, branch Branch) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE branches SET name = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		branch.ID, branch.Name, branch.Address, branch.Phone)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete flags the branch deleted.
func (r *PGRepository) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE branches SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindAccessUser loads the user fields the resolver needs.
func (r *PGRepository) FindAccessUser(ctx context.Context, userID int64) (*AccessUser, error) {
	var u AccessUser
	var branchID pgtype.Int8
	err := r.pool.QueryRow(ctx,
		`SELECT id, role, branch_id FROM users WHERE id = $1 AND NOT is_deleted`, userID).
		Scan(&u.ID, &u.Role, &branchID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if branchID.Valid {
		u.BranchID = &branchID.Int64
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
