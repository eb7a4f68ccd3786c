package vendors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for vendors.
type Repository interface {
	Create(ctx context.Context, v Vendor) (*Vendor, error)
	Get(ctx context.Context, id int64) (*Vendor, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Vendor, int, error)
	Update(ctx context.Context, v Vendor) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const vendorColumns = `id, branch_id, name, email, phone, address, tax_number, is_deleted, created_at, updated_at`

func scanVendor(row pgx.Row) (*Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.BranchID, &v.Name, &v.Email, &v.Phone, &v.Address,
		&v.TaxNumber, &v.IsDeleted, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) Create(ctx context.Context, v Vendor) (*Vendor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO vendors (branch_id, name, email, phone, address, tax_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+vendorColumns,
		v.BranchID, v.Name, v.Email, v.Phone, v.Address, v.TaxNumber)
	return scanVendor(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Vendor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1 AND NOT is_deleted`, id)
	return scanVendor(row)
}

func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Vendor, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM vendors
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+vendorColumns+` FROM vendors
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vendors SET name = $2, email = $3, phone = $4, address = $5,
			tax_number = $6, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		v.ID, v.Name, v.Email, v.Phone, v.Address, v.TaxNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vendors SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
