package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// AuthGateway maps /auth/*.
type AuthGateway interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error)
}

// UserGateway maps /users/me.
type UserGateway interface {
	Me(ctx context.Context) (*domain.User, error)
}

// TransactionGateway maps /me/transactions.
type TransactionGateway interface {
	List(ctx context.Context, filters domain.Filters) ([]domain.Transaction, error)
	Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)
	Update(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// ReportGateway maps /me/summary and /me/reports/*.
type ReportGateway interface {
	MonthlySummary(ctx context.Context, month, year int) (*domain.MonthlySummary, error)
	Download(ctx context.Context, month, year int, format domain.ReportFormat) (*domain.Report, error)
}
