package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/alok/blog/internal/models"
	"github.com/alok/blog/internal/store"
	"github.com/alok/blog/internal/web"
)

var (
	ErrNotFound      = errors.New("no account with that email")
	ErrBadCredential = errors.New("password does not match")
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator checks credentials against the user store.
type Authenticator struct {
	users UserStore
	cost  int
}

func NewAuthenticator(users UserStore) *Authenticator {
	return &Authenticator{users: users, cost: bcrypt.DefaultCost}
}

// Authenticate returns the identity owning email if password matches its
// stored hash.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredential
	}
	return user.Identity(), nil
}

// Register validates form and creates the account. Invalid input and
// taken usernames or emails come back as web.FormErrors.
func (a *Authenticator) Register(ctx context.Context, form *models.RegisterForm) (*models.User, error) {
	if err := web.Validate(form); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := a.users.CreateUser(ctx, form.Username, form.Email, string(hashed))
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return nil, web.FormErrors{"username": {"That username is taken. Please choose a different one."}}
	case errors.Is(err, store.ErrEmailTaken):
		return nil, web.FormErrors{"email": {"That email is taken. Please choose a different one."}}
	case err != nil:
		return nil, err
	}
	return user, nil
}

type identityKey struct{}

// WithIdentity binds id to ctx.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// CurrentIdentity returns the identity bound to ctx, if any.
func CurrentIdentity(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*models.Identity)
	return id, ok && id != nil
}
