package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence operations for projects and timesheets.
type Repository interface {
	Create(ctx context.Context, p Project) (*Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Project, int, error)
	Update(ctx context.Context, p Project) error
	SoftDelete(ctx context.Context, id, deletedBy int64) error

	AddTimesheet(ctx context.Context, t Timesheet) (*Timesheet, error)
	ListTimesheets(ctx context.Context, projectID int64, page shared.PageRequest) ([]Timesheet, int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const projectColumns = `id, branch_id, customer_id, name, status, created_by, is_deleted, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var customerID pgtype.Int8
	err := row.Scan(&p.ID, &p.BranchID, &customerID, &p.Name, &p.Status, &p.CreatedBy,
		&p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		p.CustomerID = &customerID.Int64
	}
	return &p, nil
}

func (r *PGRepository) Create(ctx context.Context, p Project) (*Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (branch_id, customer_id, name, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+projectColumns,
		p.BranchID, p.CustomerID, p.Name, p.Status, p.CreatedBy)
	return scanProject(row)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 AND NOT is_deleted`, id)
	return scanProject(row)
}

func (r *PGRepository) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Project, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM projects
		WHERE branch_id = ANY($1) AND NOT is_deleted AND ($2 = '%%' OR name ILIKE $2)`,
		branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE branch_id = ANY($1) AND NOT is_deleted AND ($2 = '%%' OR name ILIKE $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`,
		branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, p Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET customer_id = $2, name = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`,
		p.ID, p.CustomerID, p.Name, p.Status)
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
		UPDATE projects SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted`, id, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) AddTimesheet(ctx context.Context, t Timesheet) (*Timesheet, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO timesheets (project_id, user_id, work_date, hours, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, project_id, user_id, work_date, hours, note, created_at, updated_at`,
		t.ProjectID, t.UserID, t.WorkDate, t.Hours, t.Note)
	var out Timesheet
	err := row.Scan(&out.ID, &out.ProjectID, &out.UserID, &out.WorkDate, &out.Hours, &out.Note,
		&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PGRepository) ListTimesheets(ctx context.Context, projectID int64, page shared.PageRequest) ([]Timesheet, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM timesheets WHERE project_id = $1`, projectID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, user_id, work_date, hours, note, created_at, updated_at
		FROM timesheets WHERE project_id = $1
		ORDER BY work_date DESC, id DESC
		LIMIT $2 OFFSET $3`,
		projectID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Timesheet
	for rows.Next() {
		var t Timesheet
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.UserID, &t.WorkDate, &t.Hours, &t.Note,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
