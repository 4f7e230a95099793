package ports

import (
	"context"
	"time"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// DashboardState is a copy of everything the dashboard renders.
type DashboardState struct {
	Transactions []domain.Transaction // display order
	Summary      *domain.MonthlySummary
	Filters      domain.Filters
	Month        int
	Year         int
	Editing      *domain.Transaction
	ListLoading  bool
	FormLoading  bool
	Notification *domain.Notification

	// ListFailed and SummaryFailed report whether the latest applied fetch
	// of that slice failed, whatever the notification shows now.
	ListFailed    bool
	SummaryFailed bool
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Timer is the handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// RealAfterFunc; tests substitute a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc is the wall-clock AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DashboardService orchestrates loading, filtering and mutating transactions.
type DashboardService interface {
	Mount(ctx context.Context) func()
	Load(ctx context.Context)
	RefreshList(ctx context.Context)
	SetFilters(ctx context.Context, f domain.Filters)
	ClearFilters(ctx context.Context)
	SetPeriod(ctx context.Context, month, year int) error
	BeginEdit(tx domain.Transaction)
	CancelEdit()
	Create(ctx context.Context, in domain.TransactionInput) error
	Update(ctx context.Context, in domain.TransactionInput) error
	Delete(ctx context.Context, tx domain.Transaction) (bool, error)
	ExportReport(ctx context.Context, format domain.ReportFormat) (*domain.Report, error)
	State() DashboardState
}
