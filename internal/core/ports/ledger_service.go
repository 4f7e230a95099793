package ports

import (
	"context"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// LedgerService is the backend side of /me/transactions, /me/summary and
// /me/reports.
type LedgerService interface {
	List(ctx context.Context, userID int64, filters domain.Filters) ([]domain.Transaction, error)
	Create(ctx context.Context, userID int64, in domain.TransactionInput) (*domain.Transaction, error)
	Update(ctx context.Context, userID, id int64, in domain.TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, id int64) error
	MonthlySummary(ctx context.Context, userID int64, month, year int) (*domain.MonthlySummary, error)
	Report(ctx context.Context, userID int64, month, year int, format domain.ReportFormat) (*domain.Report, error)
}
