package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository defines persistence for the generic document engine.
type Repository interface {
	Create(ctx context.Context, doc *Document) (*Document, error)
	Get(ctx context.Context, kind numbering.DocKind, id int64) (*Document, error)
	List(ctx context.Context, kind numbering.DocKind, branchIDs []int64, page shared.PageRequest) ([]Document, int, error)
	Update(ctx context.Context, doc *Document) error
	SoftDelete(ctx context.Context, kind numbering.DocKind, id, deletedBy int64) error
	NumberExists(ctx context.Context, kind numbering.DocKind, branchID int64, number string) (bool, error)
	AppendAttachments(ctx context.Context, kind numbering.DocKind, id int64, urls []string) error
}

// PGRepository implements Repository using PostgreSQL. Headers live in the
// documents table discriminated by kind, lines in document_items.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const documentColumns = `id, kind, branch_id, doc_number, customer_id, vendor_id, doc_date, due_date,
	status, sub_total, tax_total, discount_total, total, notes, attachments, created_by,
	is_deleted, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var customerID, vendorID pgtype.Int8
	var dueDate pgtype.Timestamptz
	var notes pgtype.Text
	err := row.Scan(&d.ID, &d.Kind, &d.BranchID, &d.DocNumber, &customerID, &vendorID,
		&d.DocDate, &dueDate, &d.Status, &d.SubTotal, &d.TaxTotal, &d.DiscountTotal,
		&d.Total, &notes, &d.Attachments, &d.CreatedBy, &d.IsDeleted, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		d.CustomerID = &customerID.Int64
	}
	if vendorID.Valid {
		d.VendorID = &vendorID.Int64
	}
	if dueDate.Valid {
		t := dueDate.Time
		d.DueDate = &t
	}
	d.Notes = notes.String
	if d.Attachments == nil {
		d.Attachments = []string{}
	}
	return &d, nil
}

func (r *PGRepository) Create(ctx context.Context, doc *Document) (*Document, error) {
	var created *Document
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO documents (kind, branch_id, doc_number, customer_id, vendor_id, doc_date, due_date,
				status, sub_total, tax_total, discount_total, total, notes, attachments, created_by,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
			RETURNING `+documentColumns,
			doc.Kind, doc.BranchID, doc.DocNumber, doc.CustomerID, doc.VendorID, doc.DocDate,
			doc.DueDate, doc.Status, doc.SubTotal, doc.TaxTotal, doc.DiscountTotal, doc.Total,
			doc.Notes, doc.Attachments, doc.CreatedBy)
		header, err := scanDocument(row)
		if err != nil {
			return err
		}
		items, err := insertItems(ctx, tx, header.ID, doc.Items)
		if err != nil {
			return err
		}
		header.Items = items
		created = header
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, documentID int64, items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		row := tx.QueryRow(ctx, `
			INSERT INTO document_items (document_id, item_name, qty, rate, unit, discount, tax_id,
				tax_amount, amount, line_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			documentID, item.ItemName, item.Qty, item.Rate, item.Unit, item.Discount,
			item.TaxID, item.TaxAmount, item.Amount, item.LineOrder)
		if err := row.Scan(&item.ID); err != nil {
			return nil, err
		}
		item.DocumentID = documentID
		out = append(out, item)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, kind numbering.DocKind, id int64) (*Document, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id = $1 AND kind = $2 AND NOT is_deleted`, id, kind)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	items, err := r.itemsFor(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

func (r *PGRepository) itemsFor(ctx context.Context, documentID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, item_name, qty, rate, unit, discount, tax_id, tax_amount, amount, line_order
		FROM document_items WHERE document_id = $1 ORDER BY line_order`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		var taxID pgtype.Int8
		var unit pgtype.Text
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.ItemName, &item.Qty, &item.Rate,
			&unit, &item.Discount, &taxID, &item.TaxAmount, &item.Amount, &item.LineOrder); err != nil {
			return nil, err
		}
		item.Unit = unit.String
		if taxID.Valid {
			item.TaxID = &taxID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PGRepository) List(ctx context.Context, kind numbering.DocKind, branchIDs []int64, page shared.PageRequest) ([]Document, int, error) {
	pattern := "%" + page.Search + "%"

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents
		WHERE kind = $1 AND branch_id = ANY($2) AND NOT is_deleted
		  AND ($3 = '%%' OR doc_number ILIKE $3 OR status ILIKE $3 OR notes ILIKE $3)`,
		kind, branchIDs, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE kind = $1 AND branch_id = ANY($2) AND NOT is_deleted
		  AND ($3 = '%%' OR doc_number ILIKE $3 OR status ILIKE $3 OR notes ILIKE $3)
		ORDER BY doc_date DESC, id DESC
		LIMIT $4 OFFSET $5`,
		kind, branchIDs, pattern, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *doc)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, doc *Document) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE documents SET customer_id = $2, vendor_id = $3, doc_date = $4, due_date = $5,
				status = $6, sub_total = $7, tax_total = $8, discount_total = $9, total = $10,
				notes = $11, updated_at = NOW()
			WHERE id = $1 AND kind = $12 AND NOT is_deleted`,
			doc.ID, doc.CustomerID, doc.VendorID, doc.DocDate, doc.DueDate, doc.Status,
			doc.SubTotal, doc.TaxTotal, doc.DiscountTotal, doc.Total, doc.Notes, doc.Kind)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1`, doc.ID); err != nil {
			return err
		}
		items, err := insertItems(ctx, tx, doc.ID, doc.Items)
		if err != nil {
			return err
		}
		doc.Items = items
		return nil
	})
}

func (r *PGRepository) SoftDelete(ctx context.Context, kind numbering.DocKind, id, deletedBy int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET is_deleted = TRUE, deleted_at = NOW(), deleted_by = $3, updated_at = NOW()
		WHERE id = $1 AND kind = $2 AND NOT is_deleted`, id, kind, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NumberExists checks doc_number uniqueness per branch and kind, including
// soft-deleted rows so a number is never reused.
func (r *PGRepository) NumberExists(ctx context.Context, kind numbering.DocKind, branchID int64, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM documents WHERE kind = $1 AND branch_id = $2 AND doc_number = $3)`,
		kind, branchID, number).Scan(&exists)
	return exists, err
}

func (r *PGRepository) AppendAttachments(ctx context.Context, kind numbering.DocKind, id int64, urls []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents SET attachments = attachments || $3, updated_at = NOW()
		WHERE id = $1 AND kind = $2 AND NOT is_deleted`, id, kind, urls)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
