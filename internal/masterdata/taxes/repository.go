package taxes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for taxes.
type Repository interface {
	Create(ctx context.Context, tax Tax) (*Tax, error)
	Get(ctx context.Context, id int64) (*Tax, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Tax, int, error)
	Update(ctx context.Context, tax Tax) error
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

const taxColumns = `id, branch_id, name, kind, vat_rate, cgst_rate, sgst_rate, is_deleted, created_at, updated_at`

func scanTax(row pgx.Row) (*Tax, error) {
	var t Tax
	err := row.Scan(&t.ID, &t.BranchID, &t.Name, &t.Kind, &t.VatRate, &t.CgstRate, &t.SgstRate,
		&t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) Create(ctx context.Context, tax Tax) (*Tax, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO taxes (branch_id, name, kind, vat_rate, cgst_rate, sgst_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING `+taxColumns,
		tax.BranchID, tax.Name, tax.Kind, tax.VatRate, tax.CgstRate, tax.SgstRate)
	return scanTax(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Tax, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taxColumns+` FROM taxes WHERE id = $1 AND NOT is_deleted`, id)
	return scanTax(row)
}

func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Tax, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM taxes
		WHERE branch_id = ANY($1) AND NOT is_deleted AND ($2 = '%%' OR name ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+taxColumns+` FROM taxes
		WHERE branch_id = ANY($1) AND NOT is_deleted AND ($2 = '%%' OR name ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Tax
	for rows.Next() {
		t, err := scanTax(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, tax Tax) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE taxes SET name = $2, kind = $3, vat_rate = $4, cgst_rate = $5, sgst_rate = $6, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		tax.ID, tax.Name, tax.Kind, tax.VatRate, tax.CgstRate, tax.SgstRate)
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
		UPDATE taxes SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
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
