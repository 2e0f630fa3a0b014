package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/akarpov87/invoicehub/internal/calc"
	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/akarpov87/invoicehub/internal/repository"
)

// Listing page size bounds. The default matches the client's page size;
// the cap keeps a caller-controlled limit from scanning the whole table.
const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// InvoiceInput carries invoice fields from a create or update request.
// For updates, nil/empty fields keep the stored values; a non-nil Items
// slice triggers server-side recomputation of all totals. Client-supplied
// subtotal/taxTotal/total are never accepted.
type InvoiceInput struct {
	InvoiceNumber string
	InvoiceDate   *time.Time
	DueDate       *time.Time
	BillFrom      *model.Party
	BillTo        *model.Party
	Items         []model.InvoiceItem
	Notes         string
	PaymentTerms  string
	Status        string
}

// InvoiceService defines invoice CRUD with ownership enforcement.
type InvoiceService interface {
	// Create stores a new invoice with server-computed totals.
	Create(ctx context.Context, userID uuid.UUID, in InvoiceInput) (*model.Invoice, error)
	// Get returns one invoice; ErrNotOwner if it belongs to someone else.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Invoice, error)
	// List pages forward through the user's invoices in ID order.
	List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.InvoicePage, error)
	// Update applies a partial update, recomputing totals when items change.
	Update(ctx context.Context, userID, id uuid.UUID, in InvoiceInput) (*model.Invoice, error)
	// Delete removes an invoice owned by the user.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type InvoiceServiceImpl struct {
	repo repository.InvoiceRepository
}

// NewInvoiceService constructs InvoiceService.
func NewInvoiceService(repo repository.InvoiceRepository) *InvoiceServiceImpl {
	return &InvoiceServiceImpl{repo: repo}
}

// Create validates required fields, applies defaults and computes totals.
func (s *InvoiceServiceImpl) Create(ctx context.Context, userID uuid.UUID, in InvoiceInput) (*model.Invoice, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if in.InvoiceNumber == "" {
		return nil, fmt.Errorf("%w: invoiceNumber is required", errs.ErrValidation)
	}
	status := in.Status
	if status == "" {
		status = model.StatusUnpaid
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}

	// UUIDv7 keeps creation order, which the listing cursor relies on.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		ID:            id,
		UserID:        userID,
		InvoiceNumber: in.InvoiceNumber,
		InvoiceDate:   time.Now(),
		DueDate:       in.DueDate,
		Items:         in.Items,
		Notes:         in.Notes,
		PaymentTerms:  model.DefaultPaymentTerms,
		Status:        status,
	}
	if in.InvoiceDate != nil {
		inv.InvoiceDate = *in.InvoiceDate
	}
	if in.BillFrom != nil {
		inv.BillFrom = *in.BillFrom
	}
	if in.BillTo != nil {
		inv.BillTo = *in.BillTo
	}
	if in.PaymentTerms != "" {
		inv.PaymentTerms = in.PaymentTerms
	}
	if inv.Items == nil {
		inv.Items = []model.InvoiceItem{}
	}

	totals := calc.Compute(inv.Items)
	inv.Subtotal, inv.TaxTotal, inv.Total = totals.Subtotal, totals.TaxTotal, totals.Total

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get loads an invoice and enforces ownership after the existence check, so
// a non-owner probing a valid ID gets "not authorized", not "not found".
func (s *InvoiceServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*model.Invoice, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, errs.ErrNotOwner
	}
	return inv, nil
}

// List returns one forward page. The cursor is the last-seen invoice ID;
// limit+1 rows are fetched to decide whether a next page exists. Paging is
// forward-only: there is no backward cursor.
func (s *InvoiceServiceImpl) List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*model.InvoicePage, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	afterID := uuid.Nil
	if cursor != "" {
		id, err := uuid.FromString(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed cursor", errs.ErrValidation)
		}
		afterID = id
	}

	rows, err := s.repo.ListAfter(ctx, userID, afterID, limit+1)
	if err != nil {
		return nil, err
	}

	page := &model.InvoicePage{Results: rows}
	if len(rows) > limit {
		page.Results = rows[:limit]
		next := rows[limit-1].ID.String()
		page.Next = &next
	}
	if page.Results == nil {
		page.Results = []model.Invoice{}
	}
	return page, nil
}

// Update applies supplied fields over the stored invoice. Totals are
// recomputed only when the request carried an items array.
func (s *InvoiceServiceImpl) Update(ctx context.Context, userID, id uuid.UUID, in InvoiceInput) (*model.Invoice, error) {
	inv, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.InvoiceNumber != "" {
		inv.InvoiceNumber = in.InvoiceNumber
	}
	if in.InvoiceDate != nil {
		inv.InvoiceDate = *in.InvoiceDate
	}
	if in.DueDate != nil {
		inv.DueDate = in.DueDate
	}
	if in.BillFrom != nil {
		inv.BillFrom = *in.BillFrom
	}
	if in.BillTo != nil {
		inv.BillTo = *in.BillTo
	}
	if in.Notes != "" {
		inv.Notes = in.Notes
	}
	if in.PaymentTerms != "" {
		inv.PaymentTerms = in.PaymentTerms
	}
	if in.Status != "" {
		if err := validateStatus(in.Status); err != nil {
			return nil, err
		}
		inv.Status = in.Status
	}
	if in.Items != nil {
		inv.Items = in.Items
		totals := calc.Compute(inv.Items)
		inv.Subtotal, inv.TaxTotal, inv.Total = totals.Subtotal, totals.TaxTotal, totals.Total
	}

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete removes an invoice after the ownership check.
func (s *InvoiceServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validateStatus(status string) error {
	if status != model.StatusPaid && status != model.StatusUnpaid {
		return fmt.Errorf("%w: status must be %q or %q", errs.ErrValidation, model.StatusPaid, model.StatusUnpaid)
	}
	return nil
}
