package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// TransactionRepository persists transactions. Every call is scoped to the
// owning user; a transaction owned by someone else behaves as missing.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	FindByID(ctx context.Context, userID, id int64) (*domain.Transaction, error)
	// FindByUser returns the user's transactions whose date lies in
	// [q.From, q.To] (zero bounds are open), ordered by date then ID.
	FindByUser(ctx context.Context, userID int64, q TransactionQuery) ([]domain.Transaction, error)
}

// TransactionQuery is the storage-level filter.
type TransactionQuery struct {
	Category string
	Type     domain.TransactionType
	From     domain.Date
	To       domain.Date
}
