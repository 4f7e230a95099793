package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// AuthService is the backend side of /auth and /users/me.
type AuthService interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}
