package service

import (
	"context"
	"log/slog"

	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/state"
	"github.com/wacspeakers/speakerdir/internal/tokenstore"
)

// Notification texts of the account flows.
const (
	MsgAccountCreated = "Your account has been created."
	MsgAccountUpdated = "Your account has been updated."
	MsgAccountDeleted = "Your account has been deleted."
	MsgWelcomeBack    = "Welcome back!"
	MsgLoggedOut      = "You have been logged out of your account."
	MsgNotSignedIn    = "You need to log in first."

	errSaveProfile    = "There was an error in saving your profile."
	errDeleteAccount  = "There was an error in deleting your account."
	errLogin          = "We were not able to log you in."
	errLogout         = "We were not able to log you out."
	errResetPassword  = "We were not able to reset your password."
	errChangePassword = "There was an error in updating your password."
	errTryAgain       = "Please try again later."
)

// AccountService runs the session and account lifecycle flows.
//
// Every flow persists a new token before dispatching anything that needs it,
// so follow-up requests in the same flow carry the fresh credential.
type AccountService struct {
	store    *state.Store
	gateway  Gateway
	tokens   tokenstore.Store
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(store *state.Store, gateway Gateway, tokens tokenstore.Store, nav Navigator, notifier Notifier, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		store:    store,
		gateway:  gateway,
		tokens:   tokens,
		nav:      nav,
		notifier: notifier,
		logger:   logger,
	}
}

// OnChange merges form edits into the account record.
func (a *AccountService) OnChange(fields models.Fields) {
	a.store.Dispatch(state.OnChange{Data: fields})
}

// ValidateToken checks the stored token at startup. Without a token the
// record is reset to logged out and nothing is sent. A rejected token is
// discarded and the user is sent to the login route.
func (a *AccountService) ValidateToken(ctx context.Context) error {
	token, ok := a.storedToken(ctx)
	if !ok {
		a.store.Dispatch(state.LogoutSuccess{})
		return nil
	}

	if err := a.gateway.VerifyToken(ctx, token); err != nil {
		a.logger.Info("stored token rejected", "error", err)
		a.signOut(ctx)
		a.nav.Navigate(LoginRoute)
		return nil
	}
	return a.Get(ctx)
}

// Get fetches the signed-in user and hydrates the account and profile
// slices. An incomplete registration redirects to its next step.
func (a *AccountService) Get(ctx context.Context) error {
	gen := a.store.Begin(state.Session)
	defer a.store.Finish(state.Session)
	a.store.Dispatch(state.GetRequest{})
	a.store.Dispatch(state.ProfileRequest{})

	token, _ := a.storedToken(ctx)
	users, err := a.gateway.ListUsers(ctx, token)
	if err != nil {
		a.logger.Warn("fetch session failed", "error", err)
		a.store.DispatchLatest(state.Session, gen, state.GetError{Err: err})
		return reported(err)
	}
	if len(users) == 0 {
		a.logger.Debug("session fetch returned no user")
		a.store.DispatchLatest(state.Session, gen, state.GetError{})
		return nil
	}

	user := users[0]
	data := user.Merge(models.Fields{"isAuthenticated": true})
	if !a.store.DispatchLatest(state.Session, gen, state.GetSuccess{Data: data}) {
		return nil
	}
	profile := models.ProfileFrom(user)
	a.store.Dispatch(state.ProfileSuccess{Profile: profile})
	if page := profile.Page(); page != "" {
		a.nav.Navigate(models.NextRegistrationRoute(page))
	}
	return nil
}

// Create registers the account described by the current record.
func (a *AccountService) Create(ctx context.Context) error {
	a.store.Dispatch(state.PostRequest{})
	record := a.store.Account()
	page := record.Fields.String("page")

	resp, err := a.gateway.Register(ctx, record.Fields)
	if err != nil {
		return a.fail(err, errSaveProfile, state.PostError{Err: err})
	}
	if err := a.tokens.Set(ctx, resp.Token); err != nil {
		return a.fail(err, errSaveProfile, state.PostError{Err: err})
	}

	user := resp.User.Clone()
	if pk, ok := user["pk"]; ok {
		user["id"] = pk
	}
	a.store.Dispatch(state.PostSuccess{Data: user})
	a.notifier.Notify(MsgAccountCreated)
	a.nav.Navigate(models.NextRegistrationRoute(page))
	// The profile arrives with the session fetch; its failure is logged there.
	_ = a.Get(ctx)
	return nil
}

// Update saves the current record.
func (a *AccountService) Update(ctx context.Context) error {
	record := a.store.Account()
	if record.ID() == "" {
		return a.requireSignIn()
	}
	a.store.Dispatch(state.PutRequest{})

	token, _ := a.storedToken(ctx)
	user, err := a.gateway.UpdateUser(ctx, token, record.ID(), record.Fields)
	if err != nil {
		return a.fail(err, errSaveProfile, state.PutError{Err: err})
	}
	a.store.Dispatch(state.PutSuccess{Data: user})
	a.notifier.Notify(MsgAccountUpdated)
	return nil
}

// Destroy deletes the account and signs out.
func (a *AccountService) Destroy(ctx context.Context) error {
	record := a.store.Account()
	if record.ID() == "" {
		return a.requireSignIn()
	}
	a.store.Dispatch(state.PutRequest{})

	token, _ := a.storedToken(ctx)
	data, err := a.gateway.DeleteUser(ctx, token, record.ID(), record.Fields)
	if err != nil {
		return a.fail(err, errDeleteAccount, state.PutError{Err: err})
	}
	a.store.Dispatch(state.PutSuccess{Data: data})
	a.signOut(ctx)
	a.nav.Navigate(HomeRoute)
	a.notifier.Notify(MsgAccountDeleted)
	return nil
}

// Login authenticates with the credentials in the current record.
func (a *AccountService) Login(ctx context.Context) error {
	a.store.Dispatch(state.PutRequest{})
	record := a.store.Account()

	resp, err := a.gateway.Login(ctx, record.Fields)
	if err != nil {
		return a.fail(err, errLogin, state.PutError{Err: err})
	}
	if err := a.tokens.Set(ctx, resp.Token); err != nil {
		return a.fail(err, errLogin, state.PutError{Err: err})
	}

	a.store.Dispatch(state.LoginSuccess{User: resp.User, ID: resp.User["pk"], Token: resp.Token})
	a.notifier.Notify(MsgWelcomeBack)
	a.nav.Navigate(ProfileRoute)
	_ = a.Get(ctx)
	return nil
}

// Logout ends the session. The server-side call is best effort; the local
// session is only discarded once it succeeds.
func (a *AccountService) Logout(ctx context.Context) error {
	a.store.Dispatch(state.PutRequest{})
	if err := a.gateway.Logout(ctx); err != nil {
		return a.fail(err, errLogout, state.PutError{Err: err})
	}
	a.signOut(ctx)
	a.nav.Navigate(HomeRoute)
	a.notifier.Notify(MsgLoggedOut)
	return nil
}

// ResetPassword mails a reset link to the record's email.
func (a *AccountService) ResetPassword(ctx context.Context) error {
	email := a.store.Account().Fields.String("email")
	resp, err := a.gateway.ResetPassword(ctx, email)
	if err != nil {
		return a.fail(err, errResetPassword, state.PostError{Err: err})
	}
	a.notifier.Notify(resp.Detail)
	a.nav.Navigate(HomeRoute)
	return nil
}

// ConfirmResetPassword sets the new password from the record using the uid
// and token of a reset link.
func (a *AccountService) ConfirmResetPassword(ctx context.Context, uid, token string) error {
	fields := a.store.Account().Fields.Merge(models.Fields{"uid": uid, "token": token})
	resp, err := a.gateway.ConfirmResetPassword(ctx, fields)
	if err != nil {
		return a.fail(err, errResetPassword, state.PostError{Err: err})
	}
	a.notifier.Notify(resp.Detail)
	a.nav.Navigate(HomeRoute)
	return nil
}

// ChangePassword changes the signed-in user's password.
func (a *AccountService) ChangePassword(ctx context.Context) error {
	token, _ := a.storedToken(ctx)
	resp, err := a.gateway.ChangePassword(ctx, token, a.store.Account().Fields)
	if err != nil {
		return a.fail(err, errChangePassword, state.PostError{Err: err})
	}
	a.notifier.Notify(resp.Detail)
	return nil
}

// storedToken reads the token store. A broken store reads as empty.
func (a *AccountService) storedToken(ctx context.Context) (string, bool) {
	token, ok, err := a.tokens.Get(ctx)
	if err != nil {
		a.logger.Warn("read token store failed", "error", err)
		return "", false
	}
	return token, ok
}

// signOut discards the token and resets the account and profile slices.
func (a *AccountService) signOut(ctx context.Context) {
	if err := a.tokens.Clear(ctx); err != nil {
		a.logger.Warn("clear token store failed", "error", err)
	}
	a.store.Dispatch(state.LogoutSuccess{})
	a.store.Dispatch(state.ProfileLogout{})
}

// fail resets the request flag through intent and notifies the user. A
// validation error is spelled out field by field; anything else gets a
// generic line.
func (a *AccountService) fail(err error, prefix string, intent state.Intent) error {
	a.logger.Warn("account request failed", "intent", state.Name(intent), "error", err)
	a.store.Dispatch(intent)

	if gwErr, ok := client.AsGatewayError(err); ok && gwErr.Kind == client.KindValidation {
		a.notifier.Notify(gwErr.FormatValidation(prefix))
	} else {
		a.notifier.Notify(prefix + " " + errTryAgain)
	}
	return reported(err)
}

func (a *AccountService) requireSignIn() error {
	a.notifier.Notify(MsgNotSignedIn)
	a.nav.Navigate(LoginRoute)
	return reported(ErrNotSignedIn)
}
