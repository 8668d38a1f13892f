package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/service"
	"github.com/wacspeakers/speakerdir/internal/state"
	"github.com/wacspeakers/speakerdir/internal/tokenstore"
)

type accountFixture struct {
	svc    *service.AccountService
	store  *state.Store
	tokens *tokenstore.MemoryStore
	rec    *recorder
}

func newAccountService(gw service.Gateway) accountFixture {
	store := state.NewStore(nil)
	tokens := tokenstore.NewMemoryStore()
	rec := &recorder{}
	return accountFixture{
		svc:    service.NewAccountService(store, gw, tokens, rec, rec, nil),
		store:  store,
		tokens: tokens,
		rec:    rec,
	}
}

func validationErr(fields map[string][]string) error {
	return &client.GatewayError{Kind: client.KindValidation, Status: http.StatusBadRequest, Fields: fields}
}

func TestValidateTokenWithoutTokenSkipsNetwork(t *testing.T) {
	gw := &fakeGateway{}
	f := newAccountService(gw)
	f.store.Dispatch(state.OnChange{Data: models.Fields{"email": "left@over.com"}})

	require.NoError(t, f.svc.ValidateToken(context.Background()))

	assert.Empty(t, gw.Calls())
	assert.Equal(t, models.NewAccountRecord(), f.store.Account())
	assert.Empty(t, f.rec.routes)
}

func TestValidateTokenRejectedSignsOut(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{verifyToken: func(string) error {
		return validationErr(map[string][]string{"non_field_errors": {"Signature has expired."}})
	}}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "stale"))

	require.NoError(t, f.svc.ValidateToken(ctx))

	_, ok, err := f.tokens.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, f.store.Account().IsAuthenticated)
	assert.Equal(t, []string{service.LoginRoute}, f.rec.routes)
	assert.Equal(t, []string{"VerifyToken"}, gw.Calls())
}

func TestValidateTokenAcceptedFetchesSession(t *testing.T) {
	ctx := context.Background()
	var verified, sent string
	gw := &fakeGateway{
		verifyToken: func(token string) error {
			verified = token
			return nil
		},
		listUsers: func(token string) ([]models.Fields, error) {
			sent = token
			return []models.Fields{{"id": float64(7), "email": "jane@example.com"}}, nil
		},
	}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "good"))

	require.NoError(t, f.svc.ValidateToken(ctx))

	assert.Equal(t, "good", verified)
	assert.Equal(t, "good", sent)
	record := f.store.Account()
	assert.True(t, record.IsInitialized)
	assert.True(t, record.IsAuthenticated)
	assert.False(t, record.IsLoading)
	assert.Equal(t, "7", record.ID())
}

func TestGetRedirectsToIncompleteRegistrationStep(t *testing.T) {
	gw := &fakeGateway{listUsers: func(string) ([]models.Fields, error) {
		return []models.Fields{{
			"id":      float64(7),
			"profile": map[string]any{"page": "about", "bio": "hi"},
		}}, nil
	}}
	f := newAccountService(gw)

	require.NoError(t, f.svc.Get(context.Background()))

	assert.Equal(t, []string{"/profile/speaking"}, f.rec.routes)
	profile := f.store.Profile()
	assert.False(t, profile.IsLoading)
	assert.Equal(t, "hi", profile.Profile.Fields.String("bio"))
}

func TestGetFailureKeepsAuthentication(t *testing.T) {
	gw := &fakeGateway{listUsers: func(string) ([]models.Fields, error) {
		return nil, &client.GatewayError{Kind: client.KindNetwork}
	}}
	f := newAccountService(gw)
	f.store.Dispatch(state.LoginSuccess{User: models.Fields{}, ID: float64(7)})

	err := f.svc.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrReported))

	record := f.store.Account()
	assert.True(t, record.IsAuthenticated)
	assert.False(t, record.IsLoading)
	assert.False(t, f.store.Profile().IsLoading)
}

func TestCreateStoresTokenBeforeSessionFetch(t *testing.T) {
	ctx := context.Background()
	tokens := tokenstore.NewMemoryStore()

	store := state.NewStore(nil)
	var storedAtFetch, authHeader string
	var recordAtFetch models.AccountRecord
	var profileAtFetch state.ProfileState
	r := chi.NewRouter()
	r.Post("/accounts/registration/", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body["email"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "abc",
			"user":  map[string]any{"pk": 7, "email": "jane@example.com"},
		})
	})
	r.Get("/api/v1/users/", func(w http.ResponseWriter, req *http.Request) {
		storedAtFetch, _, _ = tokens.Get(req.Context())
		recordAtFetch = store.Account()
		profileAtFetch = store.Profile()
		authHeader = req.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"id":      7,
			"email":   "jane@example.com",
			"profile": map[string]any{"page": ""},
		}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	rec := &recorder{}
	svc := service.NewAccountService(store, client.New(srv.URL, 5*time.Second), tokens, rec, rec, nil)
	svc.OnChange(models.Fields{"email": "jane@example.com", "password1": "s3cret", "page": "account"})

	require.NoError(t, svc.Create(ctx))

	token, ok, err := tokens.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", token)
	assert.Equal(t, "abc", storedAtFetch)
	assert.Equal(t, "JWT abc", authHeader)

	// Between registration and the session fetch the record carries the
	// registration user, with id taken from pk, but is not yet hydrated.
	assert.Equal(t, "7", recordAtFetch.ID())
	assert.Equal(t, "jane@example.com", recordAtFetch.Fields["email"])
	assert.False(t, recordAtFetch.IsRequesting)
	assert.True(t, recordAtFetch.IsLoading)
	assert.False(t, recordAtFetch.IsInitialized)
	assert.False(t, recordAtFetch.IsAuthenticated)
	assert.True(t, profileAtFetch.IsLoading)
	assert.Empty(t, profileAtFetch.Profile.Fields)

	record := store.Account()
	assert.Equal(t, "7", record.ID())
	assert.True(t, record.IsAuthenticated)
	assert.True(t, record.IsInitialized)
	assert.False(t, record.IsRequesting)
	assert.Equal(t, []string{service.MsgAccountCreated}, rec.messages)
	assert.Equal(t, []string{"/profile/about"}, rec.routes)
}

func TestCreateValidationFailure(t *testing.T) {
	gw := &fakeGateway{register: func(models.Fields) (client.AuthResponse, error) {
		return client.AuthResponse{}, validationErr(map[string][]string{
			"password1": {"This password is too short.", "This password is too common."},
			"email":     {"A user is already registered with this e-mail address."},
		})
	}}
	f := newAccountService(gw)

	err := f.svc.Create(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrReported))

	require.Len(t, f.rec.messages, 1)
	assert.Equal(t,
		"There was an error in saving your profile. "+
			"email: A user is already registered with this e-mail address. \n "+
			"password1: This password is too short.,This password is too common.",
		f.rec.messages[0])
	assert.False(t, f.store.Account().IsRequesting)
	assert.Empty(t, f.rec.routes)

	_, ok, _ := f.tokens.Get(context.Background())
	assert.False(t, ok)
}

func TestCreateNetworkFailureIsGeneric(t *testing.T) {
	gw := &fakeGateway{register: func(models.Fields) (client.AuthResponse, error) {
		return client.AuthResponse{}, &client.GatewayError{Kind: client.KindNetwork, Status: 500}
	}}
	f := newAccountService(gw)

	require.Error(t, f.svc.Create(context.Background()))
	assert.Equal(t, []string{"There was an error in saving your profile. Please try again later."}, f.rec.messages)
	assert.False(t, f.store.Account().IsRequesting)
}

func TestUpdateRequiresHydratedRecord(t *testing.T) {
	gw := &fakeGateway{}
	f := newAccountService(gw)

	err := f.svc.Update(context.Background())
	assert.True(t, errors.Is(err, service.ErrNotSignedIn))
	assert.Empty(t, gw.Calls())
	assert.Equal(t, []string{service.LoginRoute}, f.rec.routes)
}

func TestUpdateSavesRecord(t *testing.T) {
	ctx := context.Background()
	var gotToken, gotID string
	gw := &fakeGateway{updateUser: func(token, id string, fields models.Fields) (models.Fields, error) {
		gotToken, gotID = token, id
		return fields.Merge(models.Fields{"first_name": "Janet"}), nil
	}}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "abc"))
	f.store.Dispatch(state.LoginSuccess{User: models.Fields{"first_name": "Jane"}, ID: float64(7)})

	require.NoError(t, f.svc.Update(ctx))

	assert.Equal(t, "abc", gotToken)
	assert.Equal(t, "7", gotID)
	assert.Equal(t, "Janet", f.store.Account().Fields.String("first_name"))
	assert.Equal(t, []string{service.MsgAccountUpdated}, f.rec.messages)
	assert.Empty(t, f.rec.routes)
	assert.False(t, f.store.Account().IsRequesting)
}

func TestUpdateFailureResetsFlag(t *testing.T) {
	gw := &fakeGateway{updateUser: func(string, string, models.Fields) (models.Fields, error) {
		return nil, validationErr(map[string][]string{"first_name": {"This field may not be blank."}})
	}}
	f := newAccountService(gw)
	f.store.Dispatch(state.LoginSuccess{User: models.Fields{}, ID: float64(7)})

	require.Error(t, f.svc.Update(context.Background()))
	assert.False(t, f.store.Account().IsRequesting)
	assert.Equal(t, []string{"There was an error in saving your profile. first_name: This field may not be blank."}, f.rec.messages)
}

func TestDestroySignsOut(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "abc"))
	f.store.Dispatch(state.LoginSuccess{User: models.Fields{}, ID: float64(7)})
	f.store.Dispatch(state.ProfileSuccess{Profile: models.Profile{Fields: models.Fields{"bio": "hi"}}})

	require.NoError(t, f.svc.Destroy(ctx))

	_, ok, _ := f.tokens.Get(ctx)
	assert.False(t, ok)
	assert.Equal(t, models.NewAccountRecord(), f.store.Account())
	assert.Equal(t, state.NewProfileState(), f.store.Profile())
	assert.Equal(t, []string{service.HomeRoute}, f.rec.routes)
	assert.Equal(t, []string{service.MsgAccountDeleted}, f.rec.messages)
}

func TestLoginPersistsTokenAndFetchesSession(t *testing.T) {
	ctx := context.Background()
	var sent string
	gw := &fakeGateway{
		login: func(fields models.Fields) (client.AuthResponse, error) {
			assert.Equal(t, "jane@example.com", fields.String("email"))
			return client.AuthResponse{Token: "abc", User: models.Fields{"pk": float64(7)}}, nil
		},
		listUsers: func(token string) ([]models.Fields, error) {
			sent = token
			return []models.Fields{{"id": float64(7)}}, nil
		},
	}
	f := newAccountService(gw)
	f.svc.OnChange(models.Fields{"email": "jane@example.com", "password": "s3cret"})

	require.NoError(t, f.svc.Login(ctx))

	assert.Equal(t, "abc", sent)
	assert.Equal(t, []string{"Login", "ListUsers"}, gw.Calls())
	record := f.store.Account()
	assert.True(t, record.IsAuthenticated)
	assert.Equal(t, "7", record.ID())
	assert.Empty(t, record.Fields.String("password"))
	assert.Equal(t, []string{service.MsgWelcomeBack}, f.rec.messages)
	assert.Equal(t, []string{service.ProfileRoute}, f.rec.routes)
}

func TestLoginFailure(t *testing.T) {
	gw := &fakeGateway{login: func(models.Fields) (client.AuthResponse, error) {
		return client.AuthResponse{}, validationErr(map[string][]string{
			"non_field_errors": {"Unable to log in with provided credentials."},
		})
	}}
	f := newAccountService(gw)

	require.Error(t, f.svc.Login(context.Background()))
	assert.Equal(t, []string{
		"We were not able to log you in. non_field_errors: Unable to log in with provided credentials.",
	}, f.rec.messages)
	assert.False(t, f.store.Account().IsRequesting)
	assert.False(t, f.store.Account().IsAuthenticated)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "abc"))
	f.store.Dispatch(state.LoginSuccess{User: models.Fields{}, ID: float64(7)})

	require.NoError(t, f.svc.Logout(ctx))

	_, ok, _ := f.tokens.Get(ctx)
	assert.False(t, ok)
	assert.False(t, f.store.Account().IsAuthenticated)
	assert.Equal(t, []string{service.MsgLoggedOut}, f.rec.messages)
	assert.Equal(t, []string{service.HomeRoute}, f.rec.routes)
}

func TestLogoutFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{logout: func() error {
		return &client.GatewayError{Kind: client.KindNetwork}
	}}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "abc"))

	require.Error(t, f.svc.Logout(ctx))

	token, _, _ := f.tokens.Get(ctx)
	assert.Equal(t, "abc", token)
	assert.Equal(t, []string{"We were not able to log you out. Please try again later."}, f.rec.messages)
}

func TestPasswordFlowsRelayDetail(t *testing.T) {
	ctx := context.Background()
	var resetEmail, changeToken string
	var confirmFields models.Fields
	gw := &fakeGateway{
		resetPassword: func(email string) (client.Detail, error) {
			resetEmail = email
			return client.Detail{Detail: "Password reset e-mail has been sent."}, nil
		},
		confirmReset: func(fields models.Fields) (client.Detail, error) {
			confirmFields = fields
			return client.Detail{Detail: "Password has been reset with the new password."}, nil
		},
		changePass: func(token string, fields models.Fields) (client.Detail, error) {
			changeToken = token
			return client.Detail{Detail: "New password has been saved."}, nil
		},
	}
	f := newAccountService(gw)
	require.NoError(t, f.tokens.Set(ctx, "abc"))
	f.svc.OnChange(models.Fields{"email": "jane@example.com", "new_password1": "n3w", "new_password2": "n3w"})

	require.NoError(t, f.svc.ResetPassword(ctx))
	require.NoError(t, f.svc.ConfirmResetPassword(ctx, "MQ", "set-password"))
	require.NoError(t, f.svc.ChangePassword(ctx))

	assert.Equal(t, "jane@example.com", resetEmail)
	assert.Equal(t, "MQ", confirmFields.String("uid"))
	assert.Equal(t, "set-password", confirmFields.String("token"))
	assert.Equal(t, "n3w", confirmFields.String("new_password1"))
	assert.Equal(t, "abc", changeToken)
	assert.Equal(t, []string{
		"Password reset e-mail has been sent.",
		"Password has been reset with the new password.",
		"New password has been saved.",
	}, f.rec.messages)
	assert.Equal(t, []string{service.HomeRoute, service.HomeRoute}, f.rec.routes)
}

func TestChangePasswordFailure(t *testing.T) {
	gw := &fakeGateway{changePass: func(string, models.Fields) (client.Detail, error) {
		return client.Detail{}, validationErr(map[string][]string{"new_password2": {"The two password fields didn't match."}})
	}}
	f := newAccountService(gw)

	require.Error(t, f.svc.ChangePassword(context.Background()))
	assert.Equal(t, []string{
		"There was an error in updating your password. new_password2: The two password fields didn't match.",
	}, f.rec.messages)
}
