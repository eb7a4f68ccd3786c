package numbering

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Claim is the counter state captured at the moment of an atomic increment.
// Sequence is the issued value; Prefix and Raw are the pre-increment prefix
// and padded rendering whose length fixes the output width.
type Claim struct {
	Prefix   string
	Sequence int64
	Raw      string
}

// Repository defines persistence operations for number settings.
type Repository interface {
	Get(ctx context.Context, branchID int64, kind DocKind) (*Setting, error)
	Upsert(ctx context.Context, setting Setting) (*Setting, error)
	ListByBranch(ctx context.Context, branchID int64) ([]Setting, error)
	// ClaimNext atomically bumps the counter for an AUTO setting and returns
	// the claimed state. Returns shared.ErrNotFound when no AUTO setting
	// exists for the pair.
	ClaimNext(ctx context.Context, branchID int64, kind DocKind) (*Claim, error)
}

// PGRepository implements Repository using PostgreSQL. The settings table
// carries a unique constraint on (branch_id, doc_kind) so concurrent
// first-time creation cannot produce duplicate rows.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const settingColumns = `id, branch_id, doc_kind, prefix, next_number, next_number_raw, mode, created_at, updated_at`

func scanSetting(row pgx.Row) (*Setting, error) {
	var s Setting
	err := row.Scan(&s.ID, &s.BranchID, &s.DocKind, &s.Prefix, &s.NextNumber, &s.NextNumberRaw, &s.Mode, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get fetches the setting for a (branch, kind) pair.
func (r *PGRepository) Get(ctx context.Context, branchID int64, kind DocKind) (*Setting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+settingColumns+` FROM number_settings WHERE branch_id = $1 AND doc_kind = $2`,
		branchID, kind)
	return scanSetting(row)
}

// Upsert creates or replaces the setting for a (branch, kind) pair.
func (r *PGRepository) Upsert(ctx context.Context, setting Setting) (*Setting, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO number_settings (branch_id, doc_kind, prefix, next_number, next_number_raw, mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (branch_id, doc_kind) DO UPDATE SET
			prefix = EXCLUDED.prefix,
			next_number = EXCLUDED.next_number,
			next_number_raw = EXCLUDED.next_number_raw,
			mode = EXCLUDED.mode,
			updated_at = NOW()
		RETURNING `+settingColumns,
		setting.BranchID, setting.DocKind, setting.Prefix, setting.NextNumber, setting.NextNumberRaw, setting.Mode)
	return scanSetting(row)
}

// ListByBranch returns every setting configured for the branch.
func (r *PGRepository) ListByBranch(ctx context.Context, branchID int64) ([]Setting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settingColumns+` FROM number_settings WHERE branch_id = $1 ORDER BY doc_kind`,
		branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ClaimNext serializes concurrent allocators on the setting row lock and bumps
// the counter in a single statement, so two requests can never observe the
// same next_number.
func (r *PGRepository) ClaimNext(ctx context.Context, branchID int64, kind DocKind) (*Claim, error) {
	const query = `
		WITH current AS (
			SELECT id, prefix, next_number, next_number_raw
			FROM number_settings
			WHERE branch_id = $1 AND doc_kind = $2 AND mode = 'AUTO'
			FOR UPDATE
		)
		UPDATE number_settings ns
		SET next_number = c.next_number + 1,
		    next_number_raw = lpad((c.next_number + 1)::text,
		        greatest(length(c.next_number_raw), length((c.next_number + 1)::text)), '0'),
		    updated_at = NOW()
		FROM current c
		WHERE ns.id = c.id
		RETURNING c.prefix, c.next_number, c.next_number_raw`

	var claim Claim
	err := r.pool.QueryRow(ctx, query, branchID, kind).Scan(&claim.Prefix, &claim.Sequence, &claim.Raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

var _ Repository = (*PGRepository)(nil)
