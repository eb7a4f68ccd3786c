package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, c Customer) (*Customer, error)
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Customer, int, error)
	Update(ctx context.Context, c Customer) error
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

const customerColumns = `id, branch_id, name, email, phone, billing_address, shipping_address, is_deleted, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.BranchID, &c.Name, &c.Email, &c.Phone, &c.BillingAddress,
		&c.ShippingAddress, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) Create(ctx context.Context, c Customer) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (branch_id, name, email, phone, billing_address, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+customerColumns,
		c.BranchID, c.Name, c.Email, c.Phone, c.BillingAddress, c.ShippingAddress)
	return scanCustomer(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1 AND NOT is_deleted`, id)
	return scanCustomer(row)
}

func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Customer, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM customers
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET name = $2, email = $3, phone = $4, billing_address = $5,
			shipping_address = $6, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		c.ID, c.Name, c.Email, c.Phone, c.BillingAddress, c.ShippingAddress)
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
		UPDATE customers SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
