package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// AccountRepository defines the persistence of backend user accounts.
type AccountRepository interface {
	// Create assigns the account ID. A taken username yields domain.ErrUserExists.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
}
