package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// InvoiceRepo implements InvoiceRepository using PostgreSQL.
// Embedded parties and line items are stored as JSONB documents.
type InvoiceRepo struct{ db *DB }

// NewInvoiceRepo constructs an invoice repository.
func NewInvoiceRepo(db *DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, user_id, invoice_number, invoice_date, due_date,
bill_from, bill_to, items, notes, payment_terms, status,
subtotal, tax_total, total, created_at, updated_at`

// Create inserts a new invoice row.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	billFrom, billTo, items, err := marshalDocs(inv)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO invoices (id, user_id, invoice_number, invoice_date, due_date,
  bill_from, bill_to, items, notes, payment_terms, status,
  subtotal, tax_total, total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING created_at, updated_at`
	err = r.db.Pool.QueryRow(ctx, q,
		inv.ID, inv.UserID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
		billFrom, billTo, items, inv.Notes, inv.PaymentTerms, inv.Status,
		inv.Subtotal, inv.TaxTotal, inv.Total,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID returns a single invoice regardless of owner.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id=$1`
	inv, err := scanInvoice(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

// ListAfter returns up to limit invoices with ID strictly greater than
// afterID, ordered by ID ascending (UUIDv7 keyset pagination).
func (r *InvoiceRepo) ListAfter(ctx context.Context, userID, afterID uuid.UUID, limit int) ([]model.Invoice, error) {
	const q = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE user_id=$1 AND id>$2
ORDER BY id ASC
LIMIT $3`
	rows, err := r.db.Pool.Query(ctx, q, userID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// ListAll returns every invoice of the user, newest first.
func (r *InvoiceRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]model.Invoice, error) {
	const q = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// Update overwrites all mutable fields and bumps updated_at.
func (r *InvoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	billFrom, billTo, items, err := marshalDocs(inv)
	if err != nil {
		return err
	}
	const q = `
UPDATE invoices
SET invoice_number=$2, invoice_date=$3, due_date=$4, bill_from=$5, bill_to=$6,
  items=$7, notes=$8, payment_terms=$9, status=$10,
  subtotal=$11, tax_total=$12, total=$13, updated_at=now()
WHERE id=$1
RETURNING updated_at`
	err = r.db.Pool.QueryRow(ctx, q,
		inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate, billFrom, billTo,
		items, inv.Notes, inv.PaymentTerms, inv.Status,
		inv.Subtotal, inv.TaxTotal, inv.Total,
	).Scan(&inv.UpdatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// Delete removes an invoice row.
func (r *InvoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM invoices WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func marshalDocs(inv *model.Invoice) (billFrom, billTo, items []byte, err error) {
	if billFrom, err = json.Marshal(inv.BillFrom); err != nil {
		return nil, nil, nil, err
	}
	if billTo, err = json.Marshal(inv.BillTo); err != nil {
		return nil, nil, nil, err
	}
	if inv.Items == nil {
		inv.Items = []model.InvoiceItem{}
	}
	if items, err = json.Marshal(inv.Items); err != nil {
		return nil, nil, nil, err
	}
	return billFrom, billTo, items, nil
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv                     model.Invoice
		billFrom, billTo, items []byte
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.InvoiceDate,
		&inv.DueDate, &billFrom, &billTo, &items, &inv.Notes, &inv.PaymentTerms,
		&inv.Status, &inv.Subtotal, &inv.TaxTotal, &inv.Total,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billFrom, &inv.BillFrom); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billTo, &inv.BillTo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, err
	}
	return &inv, nil
}

func collectInvoices(rows pgx.Rows) ([]model.Invoice, error) {
	var out []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
