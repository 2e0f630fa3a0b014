package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/limiter"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/akarpov87/invoicehub/internal/repository"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
	updateErr error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, stored := range f.byEmail {
		if stored.ID == u.ID {
			*stored = *u
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func newAuth(users *fakeUsers, lim *fakeLimiter) *AuthServiceImpl {
	return NewAuthService(users, []byte("test-key"), time.Minute, lim)
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	s := newAuth(users, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "", "", ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}

	u, tokens, err := s.Register(ctx, "Alice", "  Alice@Example.COM ", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.PasswordHash == "" || u.PasswordHash == "pwd" {
		t.Errorf("password not hashed: %q", u.PasswordHash)
	}
	if tokens.AccessToken == "" {
		t.Error("no access token issued")
	}

	// Token round-trips to the same subject.
	got, err := s.VerifyToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if got != u.ID {
		t.Errorf("token subject = %s, want %s", got, u.ID)
	}

	// Duplicate email.
	if _, _, err := s.Register(ctx, "Alice2", "alice@example.com", "pwd2"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want already exists, got %v", err)
	}
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	lim := &fakeLimiter{allowOK: true}
	s := newAuth(users, lim)
	ctx := context.Background()

	reg, _, err := s.Register(ctx, "Bob", "bob@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, tokens, err := s.Login(ctx, "BOB@example.com", "hunter2", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != reg.ID || tokens.AccessToken == "" {
		t.Errorf("unexpected login result: %+v", u)
	}
	if lim.successCalls != 1 {
		t.Errorf("success not recorded: %d", lim.successCalls)
	}

	// Wrong password masks as unauthorized and records a failure.
	if _, _, err := s.Login(ctx, "bob@example.com", "nope", "1.2.3.4"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized, got %v", err)
	}
	if lim.failureCalls != 1 {
		t.Errorf("failure not recorded: %d", lim.failureCalls)
	}

	// Unknown user masks as unauthorized too.
	if _, _, err := s.Login(ctx, "ghost@example.com", "x", "1.2.3.4"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized for unknown user, got %v", err)
	}
}

func TestAuth_Login_RateLimited(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	s := newAuth(users, &fakeLimiter{allowOK: false})

	if _, _, err := s.Login(context.Background(), "bob@example.com", "hunter2", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want rate limited, got %v", err)
	}

	// Failure at threshold reports rate limited instead of unauthorized.
	lim := &fakeLimiter{allowOK: true, failBlocked: true}
	s = newAuth(users, lim)
	if _, _, err := s.Login(context.Background(), "ghost@example.com", "x", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want rate limited at threshold, got %v", err)
	}
}

func TestAuth_VerifyToken_Rejects(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	s := newAuth(users, &fakeLimiter{allowOK: true})

	if _, err := s.VerifyToken("garbage"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized for garbage, got %v", err)
	}

	// Token signed with a different key.
	other := NewAuthService(users, []byte("other-key"), time.Minute, &fakeLimiter{allowOK: true})
	tok, err := other.issueAccessToken(uuid.Must(uuid.NewV4()))
	if err != nil {
		t.Fatalf("issueAccessToken: %v", err)
	}
	if _, err := s.VerifyToken(tok.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized for foreign signature, got %v", err)
	}

	// Expired token.
	expired := NewAuthService(users, []byte("test-key"), -time.Minute, &fakeLimiter{allowOK: true})
	tok, err = expired.issueAccessToken(uuid.Must(uuid.NewV4()))
	if err != nil {
		t.Fatalf("issueAccessToken: %v", err)
	}
	if _, err := s.VerifyToken(tok.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want unauthorized for expired token, got %v", err)
	}
}

func TestAuth_UpdateProfile_PartialSemantics(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	s := newAuth(users, &fakeLimiter{allowOK: true})
	ctx := context.Background()

	u, _, err := s.Register(ctx, "Carol", "carol@example.com", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := s.UpdateProfile(ctx, u.ID, ProfileUpdate{BusinessName: "Carol & Co", Phone: "555"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Name != "Carol" {
		t.Errorf("empty name must keep old value, got %q", got.Name)
	}
	if got.BusinessName != "Carol & Co" || got.Phone != "555" {
		t.Errorf("update not applied: %+v", got)
	}

	if _, err := s.UpdateProfile(ctx, uuid.Must(uuid.NewV4()), ProfileUpdate{Name: "X"}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found for unknown user, got %v", err)
	}
}
