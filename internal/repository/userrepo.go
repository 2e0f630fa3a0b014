// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides CRUD access for user accounts.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by lowercased email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists profile fields (name, businessName, address, phone).
	Update(ctx context.Context, u *model.User) error
}
