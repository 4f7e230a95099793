package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// SessionService is the authentication state machine shared by every view.
type SessionService interface {
	Bootstrap(ctx context.Context) domain.Session
	Login(ctx context.Context, in domain.LoginInput) error
	Register(ctx context.Context, in domain.RegisterInput) error
	Logout()
	RefreshProfile(ctx context.Context) error
	Snapshot() domain.Session
	IsAuthenticated() bool
	// Subscribe registers fn to be called with every new snapshot. The
	// returned func removes the subscription.
	Subscribe(fn func(domain.Session)) func()
}
