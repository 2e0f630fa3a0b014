package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var invoiceCols = []string{
	"id", "user_id", "invoice_number", "invoice_date", "due_date",
	"bill_from", "bill_to", "items", "notes", "payment_terms", "status",
	"subtotal", "tax_total", "total", "created_at", "updated_at",
}

func invoiceRow(id, userID uuid.UUID) []any {
	now := time.Now()
	return []any{
		id, userID, "INV-001", now, nil,
		[]byte(`{"businessName":"Acme"}`), []byte(`{"clientName":"Globex"}`),
		[]byte(`[{"name":"design","quantity":2,"unitPrice":150,"taxPercent":0,"total":300}]`),
		"", model.DefaultPaymentTerms, model.StatusUnpaid,
		300.0, 0.0, 300.0, now, now,
	}
}

func TestInvoiceRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewInvoiceRepo(db)
	ctx := context.Background()

	inv := &model.Invoice{
		ID:            uuid.Must(uuid.NewV7()),
		UserID:        uuid.Must(uuid.NewV4()),
		InvoiceNumber: "INV-001",
		InvoiceDate:   time.Now(),
		PaymentTerms:  model.DefaultPaymentTerms,
		Status:        model.StatusUnpaid,
		Items: []model.InvoiceItem{
			{Name: "design", Quantity: 2, UnitPrice: 150, Total: 300},
		},
		Subtotal: 300, Total: 300,
	}

	mock.ExpectQuery(`INSERT INTO invoices`).
		WithArgs(inv.ID, inv.UserID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			inv.Notes, inv.PaymentTerms, inv.Status,
			inv.Subtotal, inv.TaxTotal, inv.Total).
		WillReturnRows(tsRows())
	require.NoError(t, r.Create(ctx, inv))
	require.False(t, inv.CreatedAt.IsZero())

	// Duplicate invoice number for the same user
	mock.ExpectQuery(`INSERT INTO invoices`).
		WithArgs(inv.ID, inv.UserID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			inv.Notes, inv.PaymentTerms, inv.Status,
			inv.Subtotal, inv.TaxTotal, inv.Total).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, inv), errs.ErrAlreadyExists)
}

func TestInvoiceRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewInvoiceRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM invoices WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(invoiceCols).AddRow(invoiceRow(id, userID)...))
	inv, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, inv.ID)
	require.Equal(t, "Acme", inv.BillFrom.BusinessName)
	require.Equal(t, "Globex", inv.BillTo.ClientName)
	require.Len(t, inv.Items, 1)
	require.Equal(t, model.Numeric(2), inv.Items[0].Quantity)
	require.Nil(t, inv.DueDate)

	mock.ExpectQuery(`FROM invoices WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInvoiceRepo_ListAfter(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewInvoiceRepo(db)
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())
	first := uuid.Must(uuid.NewV7())
	second := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`WHERE user_id=\$1 AND id>\$2`).
		WithArgs(userID, uuid.Nil, 3).
		WillReturnRows(pgxmock.NewRows(invoiceCols).
			AddRow(invoiceRow(first, userID)...).
			AddRow(invoiceRow(second, userID)...))
	out, err := r.ListAfter(ctx, userID, uuid.Nil, 3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, first, out[0].ID)
	require.Equal(t, second, out[1].ID)

	// Past the end: empty result, no error.
	mock.ExpectQuery(`WHERE user_id=\$1 AND id>\$2`).
		WithArgs(userID, second, 3).
		WillReturnRows(pgxmock.NewRows(invoiceCols))
	out, err = r.ListAfter(ctx, userID, second, 3)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestInvoiceRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewInvoiceRepo(db)
	ctx := context.Background()

	inv := &model.Invoice{
		ID:            uuid.Must(uuid.NewV7()),
		InvoiceNumber: "INV-002",
		InvoiceDate:   time.Now(),
		PaymentTerms:  "Net 30",
		Status:        model.StatusPaid,
	}

	mock.ExpectQuery(`UPDATE invoices`).
		WithArgs(inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			inv.Notes, inv.PaymentTerms, inv.Status,
			inv.Subtotal, inv.TaxTotal, inv.Total).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	require.NoError(t, r.Update(ctx, inv))

	mock.ExpectQuery(`UPDATE invoices`).
		WithArgs(inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			inv.Notes, inv.PaymentTerms, inv.Status,
			inv.Subtotal, inv.TaxTotal, inv.Total).
		WillReturnError(pgx.ErrNoRows)
	require.ErrorIs(t, r.Update(ctx, inv), errs.ErrNotFound)
}

func TestInvoiceRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewInvoiceRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`DELETE FROM invoices WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))

	// Second delete finds nothing.
	mock.ExpectExec(`DELETE FROM invoices WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, id), errs.ErrNotFound)
}
