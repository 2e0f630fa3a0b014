// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Invoice status values.
const (
	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"
)

// DefaultPaymentTerms is applied when a created invoice carries no terms.
const DefaultPaymentTerms = "Net 15"

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. The password hash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"` // unique, stored lowercase
	PasswordHash string    `json:"-"`
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Party is an embedded address record on either side of an invoice.
type Party struct {
	BusinessName string `json:"businessName,omitempty"`
	ClientName   string `json:"clientName,omitempty"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// InvoiceItem is one line of an invoice. Numeric fields tolerate
// partially-filled drafts: anything non-numeric decodes as zero.
type InvoiceItem struct {
	Name       string  `json:"name"`
	Quantity   Numeric `json:"quantity"`
	UnitPrice  Numeric `json:"unitPrice"`
	TaxPercent Numeric `json:"taxPercent"`
	Total      Numeric `json:"total"`
}

// Invoice is a stored invoice document. IDs are UUIDv7, so ordering by ID
// follows creation order and serves as the pagination key.
type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"userId"`
	InvoiceNumber string        `json:"invoiceNumber"`
	InvoiceDate   time.Time     `json:"invoiceDate"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	BillFrom      Party         `json:"billFrom"`
	BillTo        Party         `json:"billTo"`
	Items         []InvoiceItem `json:"items"`
	Notes         string        `json:"notes"`
	PaymentTerms  string        `json:"paymentTerms"`
	Status        string        `json:"status"`
	Subtotal      float64       `json:"subtotal"`
	TaxTotal      float64       `json:"taxTotal"`
	Total         float64       `json:"total"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// InvoicePage is one page of a forward-only invoice listing.
// Next is the ID of the last returned invoice, or nil at end of list.
type InvoicePage struct {
	Results []Invoice `json:"results"`
	Next    *string   `json:"next"`
}
