package service_test

import (
	"context"
	"sync"

	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/service"
)

// fakeGateway answers from its fields and records every call by name.
// A nil handler answers with the zero value.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	listProfiles  func(query string) ([]models.Speaker, error)
	getProfile    func(id int64) (models.Speaker, error)
	listUsers     func(token string) ([]models.Fields, error)
	updateUser    func(token, id string, fields models.Fields) (models.Fields, error)
	deleteUser    func(token, id string, fields models.Fields) (models.Fields, error)
	register      func(fields models.Fields) (client.AuthResponse, error)
	login         func(fields models.Fields) (client.AuthResponse, error)
	logout        func() error
	resetPassword func(email string) (client.Detail, error)
	confirmReset  func(fields models.Fields) (client.Detail, error)
	changePass    func(token string, fields models.Fields) (client.Detail, error)
	verifyToken   func(token string) error
}

var _ service.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) record(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) ListProfiles(_ context.Context, query string) ([]models.Speaker, error) {
	g.record("ListProfiles")
	if g.listProfiles == nil {
		return nil, nil
	}
	return g.listProfiles(query)
}

func (g *fakeGateway) GetProfile(_ context.Context, id int64) (models.Speaker, error) {
	g.record("GetProfile")
	if g.getProfile == nil {
		return models.Speaker{}, nil
	}
	return g.getProfile(id)
}

func (g *fakeGateway) ListUsers(_ context.Context, token string) ([]models.Fields, error) {
	g.record("ListUsers")
	if g.listUsers == nil {
		return nil, nil
	}
	return g.listUsers(token)
}

func (g *fakeGateway) UpdateUser(_ context.Context, token, id string, fields models.Fields) (models.Fields, error) {
	g.record("UpdateUser")
	if g.updateUser == nil {
		return nil, nil
	}
	return g.updateUser(token, id, fields)
}

func (g *fakeGateway) DeleteUser(_ context.Context, token, id string, fields models.Fields) (models.Fields, error) {
	g.record("DeleteUser")
	if g.deleteUser == nil {
		return nil, nil
	}
	return g.deleteUser(token, id, fields)
}

func (g *fakeGateway) Register(_ context.Context, fields models.Fields) (client.AuthResponse, error) {
	g.record("Register")
	if g.register == nil {
		return client.AuthResponse{}, nil
	}
	return g.register(fields)
}

func (g *fakeGateway) Login(_ context.Context, fields models.Fields) (client.AuthResponse, error) {
	g.record("Login")
	if g.login == nil {
		return client.AuthResponse{}, nil
	}
	return g.login(fields)
}

func (g *fakeGateway) Logout(_ context.Context) error {
	g.record("Logout")
	if g.logout == nil {
		return nil
	}
	return g.logout()
}

func (g *fakeGateway) ResetPassword(_ context.Context, email string) (client.Detail, error) {
	g.record("ResetPassword")
	if g.resetPassword == nil {
		return client.Detail{}, nil
	}
	return g.resetPassword(email)
}

func (g *fakeGateway) ConfirmResetPassword(_ context.Context, fields models.Fields) (client.Detail, error) {
	g.record("ConfirmResetPassword")
	if g.confirmReset == nil {
		return client.Detail{}, nil
	}
	return g.confirmReset(fields)
}

func (g *fakeGateway) ChangePassword(_ context.Context, token string, fields models.Fields) (client.Detail, error) {
	g.record("ChangePassword")
	if g.changePass == nil {
		return client.Detail{}, nil
	}
	return g.changePass(token, fields)
}

func (g *fakeGateway) VerifyToken(_ context.Context, token string) error {
	g.record("VerifyToken")
	if g.verifyToken == nil {
		return nil
	}
	return g.verifyToken(token)
}

// recorder implements Navigator and Notifier.
type recorder struct {
	mu       sync.Mutex
	routes   []string
	queries  []string
	messages []string
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, path)
}

func (r *recorder) SetQuery(display string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, display)
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}
