// Package httpapi exposes the REST surface and its middleware.
package httpapi

import (
	"context"

	"github.com/akarpov87/invoicehub/internal/model"
)

type ctxKey string

const identityKey ctxKey = "ih.identity"

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, identityKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}
