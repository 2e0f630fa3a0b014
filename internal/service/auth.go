// Package service contains application services for authentication and invoices.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/akarpov87/invoicehub/internal/crypto"
	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/limiter"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/akarpov87/invoicehub/internal/repository"
)

// ProfileUpdate carries mutable profile fields; empty values keep the old ones.
type ProfileUpdate struct {
	Name         string
	BusinessName string
	Address      string
	Phone        string
}

// AuthService defines registration, login and profile operations.
type AuthService interface {
	// Register creates a new user and issues an access token.
	Register(ctx context.Context, name, email, password string) (*model.User, model.Tokens, error)
	// Login authenticates by email/password with per-(email, ip) rate limiting.
	Login(ctx context.Context, email, password, ip string) (*model.User, model.Tokens, error)
	// GetMe loads the authenticated user's profile.
	GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error)
	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*model.User, error)
	// VerifyToken validates a bearer token and returns the subject user ID.
	VerifyToken(token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register validates input, hashes the password and creates the account.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*model.User, model.Tokens, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, model.Tokens{}, fmt.Errorf("%w: name, email and password are required", errs.ErrValidation)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return nil, model.Tokens{}, err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return nil, model.Tokens{}, err
	}

	u := &model.User{
		ID:           uid,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, model.Tokens{}, err
	}

	tokens, err := s.issueAccessToken(u.ID)
	if err != nil {
		return nil, model.Tokens{}, err
	}
	return u, tokens, nil
}

// Login authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (*model.User, model.Tokens, error) {
	email = normalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	// Check if attempts are currently allowed for this (email, ip).
	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, model.Tokens{}, err
	}
	if !allowed {
		return nil, model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword(password, u.PasswordHash) {
		// Record failure; if threshold reached, report rate-limited.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return nil, model.Tokens{}, errs.ErrRateLimited
		}
		// Lookup errors are masked so user existence is not revealed.
		return nil, model.Tokens{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	tokens, err := s.issueAccessToken(u.ID)
	if err != nil {
		return nil, model.Tokens{}, err
	}
	return u, tokens, nil
}

// GetMe loads the user behind a verified token.
func (s *AuthServiceImpl) GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile replaces only the fields that were supplied non-empty.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(upd.Name); v != "" {
		u.Name = v
	}
	if v := strings.TrimSpace(upd.BusinessName); v != "" {
		u.BusinessName = v
	}
	if v := strings.TrimSpace(upd.Address); v != "" {
		u.Address = v
	}
	if v := strings.TrimSpace(upd.Phone); v != "" {
		u.Phone = v
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyToken parses and validates an HS256 access token.
func (s *AuthServiceImpl) VerifyToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, errs.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
