package repository

import (
	"context"

	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// InvoiceRepository persists invoice documents.
type InvoiceRepository interface {
	// Create inserts a new invoice.
	Create(ctx context.Context, inv *model.Invoice) error

	// GetByID returns an invoice regardless of owner. Ownership is a policy
	// decision made by the service layer after the existence check.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)

	// ListAfter returns up to limit invoices of the user with ID strictly
	// greater than afterID, ordered by ID ascending. A nil afterID starts
	// from the beginning.
	ListAfter(ctx context.Context, userID uuid.UUID, afterID uuid.UUID, limit int) ([]model.Invoice, error)

	// ListAll returns every invoice of the user, newest first.
	ListAll(ctx context.Context, userID uuid.UUID) ([]model.Invoice, error)

	// Update overwrites the stored invoice (last write wins).
	Update(ctx context.Context, inv *model.Invoice) error

	// Delete removes an invoice; ErrNotFound if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}
