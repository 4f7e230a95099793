package gateway

import (
	"context"
	"net/http"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// Auth maps /auth/*.
type Auth struct {
	api Requester
}

func NewAuth(api Requester) *Auth {
	return &Auth{api: api}
}

// Register creates an account and returns a session for it.
func (g *Auth) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := g.api.Do(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Auth) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := g.api.Do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users maps /users/me.
type Users struct {
	api Requester
}

func NewUsers(api Requester) *Users {
	return &Users{api: api}
}

// Me returns the profile of the token holder.
func (g *Users) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := g.api.Do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
