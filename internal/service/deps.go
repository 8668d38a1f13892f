// Package service orchestrates Gateway requests and state transitions for
// speaker search and account management.
package service

import (
	"context"
	"errors"

	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
)

// Gateway is the subset of the REST client the services depend on.
// *client.Client implements it.
type Gateway interface {
	ListProfiles(ctx context.Context, query string) ([]models.Speaker, error)
	GetProfile(ctx context.Context, id int64) (models.Speaker, error)

	ListUsers(ctx context.Context, token string) ([]models.Fields, error)
	UpdateUser(ctx context.Context, token, id string, fields models.Fields) (models.Fields, error)
	DeleteUser(ctx context.Context, token, id string, fields models.Fields) (models.Fields, error)

	Register(ctx context.Context, fields models.Fields) (client.AuthResponse, error)
	Login(ctx context.Context, fields models.Fields) (client.AuthResponse, error)
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) (client.Detail, error)
	ConfirmResetPassword(ctx context.Context, fields models.Fields) (client.Detail, error)
	ChangePassword(ctx context.Context, token string, fields models.Fields) (client.Detail, error)
	VerifyToken(ctx context.Context, token string) error
}

var _ Gateway = (*client.Client)(nil)

// Navigator moves the user between routes.
type Navigator interface {
	// Navigate changes the current route.
	Navigate(path string)
	// SetQuery mirrors a display-encoded query into the current location.
	// The mirror is for sharing only and is never read back as state.
	SetQuery(display string)
}

// Notifier shows one-shot messages to the user.
type Notifier interface {
	Notify(msg string)
}

// Routes the services navigate to.
const (
	HomeRoute    = "/"
	LoginRoute   = "/login"
	ProfileRoute = "/profile"
)

var (
	// ErrReported marks errors that were already logged or shown to the user.
	// Callers should exit non-zero without printing them again.
	ErrReported = errors.New("already reported")

	// ErrNotSignedIn is returned by flows that need a hydrated account record.
	ErrNotSignedIn = errors.New("not signed in")
)

// reported wraps err so errors.Is matches both ErrReported and err's chain.
func reported(err error) error {
	return errors.Join(ErrReported, err)
}
