package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for the chart of accounts.
type Repository interface {
	Create(ctx context.Context, account Account) (*Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Account, int, error)
	Update(ctx context.Context, account Account) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error
	ParentOf(ctx context.Context, id int64) (*int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, branch_id, code, name, account_type, parent_account_id, description,
	created_by, is_deleted, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var parentID pgtype.Int8
	var description pgtype.Text
	err := row.Scan(&a.ID, &a.BranchID, &a.Code, &a.Name, &a.Type, &parentID, &description,
		&a.CreatedBy, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		a.ParentAccountID = &parentID.Int64
	}
	if description.Valid {
		a.Description = &description.String
	}
	return &a, nil
}

// Create inserts an account.
func (r *PGRepository) Create(ctx context.Context, account Account) (*Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (branch_id, code, name, account_type, parent_account_id, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING `+accountColumns,
		account.BranchID, account.Code, account.Name, account.Type, account.ParentAccountID, account.Description, account.CreatedBy)
	return scanAccount(row)
}

// Get fetches a non-deleted account by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND NOT is_deleted`, id)
	return scanAccount(row)
}

// List returns a page of non-deleted accounts across the allowed branches,
// optionally matched against code or name.
func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Account, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE branch_id = ANY($1) AND NOT is_deleted
		  AND ($2 = '%%' OR code ILIKE $2 OR name ILIKE $2)
		ORDER BY code
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// Update persists mutable account fields.
func (r *PGRepository) Update(ctx context.Context, account Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET code = $2, name = $3, account_type = $4, parent_account_id = $5,
			description = $6, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		account.ID, account.Code, account.Name, account.Type, account.ParentAccountID, account.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDelete flags the account deleted.
func (r *PGRepository) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ParentOf returns the parent id of an account, nil when the account is a root.
func (r *PGRepository) ParentOf(ctx context.Context, id int64) (*int64, error) {
	var parentID pgtype.Int8
	err := r.pool.QueryRow(ctx,
		`SELECT parent_account_id FROM accounts WHERE id = $1 AND NOT is_deleted`, id).Scan(&parentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !parentID.Valid {
		return nil, nil
	}
	return &parentID.Int64, nil
}

var _ Repository = (*PGRepository)(nil)
