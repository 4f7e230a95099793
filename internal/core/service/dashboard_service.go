package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/forms"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// Dashboard messages.
const (
	MsgFetchTransactions = "Unable to fetch transactions."
	MsgFetchSummary      = "Unable to fetch monthly summary."
	MsgCreateFailed      = "Unable to create transaction."
	MsgUpdateFailed      = "Unable to update transaction."
	MsgDeleteFailed      = "Unable to delete transaction."
	MsgReportFailed      = "Unable to download report."
	MsgCreated           = "Transaction added."
	MsgUpdated           = "Transaction updated."
	MsgDeleted           = "Transaction deleted."

	ConfirmDeletePrompt = "Delete this transaction?"
)

// DefaultToastTTL is how long a success toast stays visible.
const DefaultToastTTL = 3500 * time.Millisecond

// DashboardOption customises a DashboardService.
type DashboardOption func(*DashboardService)

// WithConfirmer sets the delete confirmation prompt. Without one every delete
// is declined.
func WithConfirmer(c ports.Confirmer) DashboardOption {
	return func(s *DashboardService) { s.confirm = c }
}

// WithAfterFunc replaces the toast timer.
func WithAfterFunc(f ports.AfterFunc) DashboardOption {
	return func(s *DashboardService) { s.afterFunc = f }
}

// WithToastTTL overrides DefaultToastTTL.
func WithToastTTL(d time.Duration) DashboardOption {
	return func(s *DashboardService) {
		if d > 0 {
			s.toastTTL = d
		}
	}
}

// WithClock sets the clock used to pick the initial month.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

// DashboardService keeps the transaction list and monthly summary in sync with
// the backend. All totals come from the backend; nothing is computed locally.
//
// Each fetch is stamped with a per-slice generation. A response is applied
// only if no newer fetch of the same slice was issued after it, so responses
// arriving out of order never overwrite newer data.
type DashboardService struct {
	session   ports.SessionService
	txs       ports.TransactionGateway
	reports   ports.ReportGateway
	confirm   ports.Confirmer
	afterFunc ports.AfterFunc
	toastTTL  time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu           sync.Mutex
	userID       int64
	transactions []domain.Transaction
	summary      *domain.MonthlySummary
	filters      domain.Filters
	month        int
	year         int
	editing      *domain.Transaction
	listLoading  bool
	formLoading  bool
	notification *domain.Notification
	listError    bool // notification was raised by a failed list fetch
	summaryError bool // notification was raised by a failed summary fetch

	listFailed    bool
	summaryFailed bool

	listGen      uint64
	summaryGen   uint64
	pendingLists int
	toastSeq     uint64
	toastTimer   ports.Timer
}

func NewDashboardService(session ports.SessionService, txs ports.TransactionGateway, reports ports.ReportGateway, log zerolog.Logger, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		session:   session,
		txs:       txs,
		reports:   reports,
		confirm:   ports.ConfirmFunc(func(context.Context, string) bool { return false }),
		afterFunc: ports.RealAfterFunc,
		toastTTL:  DefaultToastTTL,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	now := s.now()
	s.month, s.year = int(now.Month()), now.Year()
	return s
}

// Mount loads the dashboard for the current user and keeps it in step with
// the session: a different user triggers a fresh load cycle, a logout clears
// everything. The returned func detaches from the session.
func (s *DashboardService) Mount(ctx context.Context) func() {
	unsubscribe := s.session.Subscribe(func(sess domain.Session) {
		s.onSession(ctx, sess)
	})
	s.onSession(ctx, s.session.Snapshot())
	return unsubscribe
}

func (s *DashboardService) onSession(ctx context.Context, sess domain.Session) {
	if !sess.Authenticated() {
		s.mu.Lock()
		wasShowing := s.userID != 0
		s.resetLocked()
		s.mu.Unlock()
		if wasShowing {
			s.log.Debug().Msg("session ended, dashboard cleared")
		}
		return
	}

	s.mu.Lock()
	if s.userID == sess.User.ID {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.userID = sess.User.ID
	s.mu.Unlock()

	s.Load(ctx)
}

// resetLocked drops everything shown for the previous user and invalidates
// fetches still in flight. Filters and period are kept.
func (s *DashboardService) resetLocked() {
	s.userID = 0
	s.transactions = nil
	s.summary = nil
	s.editing = nil
	s.listLoading = false
	s.formLoading = false
	s.listFailed = false
	s.summaryFailed = false
	s.listGen++
	s.summaryGen++
	s.clearNotificationLocked()
}

// Load runs the load cycle: list and summary are fetched concurrently and
// independently. It does nothing without an authenticated session.
func (s *DashboardService) Load(ctx context.Context) {
	if !s.session.IsAuthenticated() {
		return
	}

	// The group carries no shared context: one failed fetch must not cancel
	// the other.
	var g errgroup.Group
	g.Go(func() error {
		s.loadList(ctx)
		return nil
	})
	g.Go(func() error {
		s.loadSummary(ctx)
		return nil
	})
	_ = g.Wait()
}

// RefreshList refetches only the transaction list.
func (s *DashboardService) RefreshList(ctx context.Context) {
	if !s.session.IsAuthenticated() {
		return
	}
	s.loadList(ctx)
}

func (s *DashboardService) loadList(ctx context.Context) {
	s.mu.Lock()
	s.listGen++
	gen := s.listGen
	filters := s.filters
	s.pendingLists++
	s.listLoading = true
	s.mu.Unlock()

	txs, err := s.txs.List(ctx, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLists--
	s.listLoading = s.pendingLists > 0
	if gen != s.listGen {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale transaction list")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch transactions")
		s.transactions = nil
		s.listFailed = true
		s.setErrorLocked(MsgFetchTransactions)
		s.listError = true
		return
	}
	s.transactions = SortForDisplay(txs)
	s.listFailed = false
	if s.listError {
		s.clearNotificationLocked()
	}
}

func (s *DashboardService) loadSummary(ctx context.Context) {
	s.mu.Lock()
	s.summaryGen++
	gen := s.summaryGen
	month, year := s.month, s.year
	s.mu.Unlock()

	summary, err := s.reports.MonthlySummary(ctx, month, year)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.summaryGen {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale summary")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int("month", month).Int("year", year).Msg("failed to fetch monthly summary")
		s.summary = nil
		s.summaryFailed = true
		s.setErrorLocked(MsgFetchSummary)
		s.summaryError = true
		return
	}
	s.summary = summary
	s.summaryFailed = false
	if s.summaryError {
		s.clearNotificationLocked()
	}
}

// SetFilters replaces the active filters and reruns the load cycle.
func (s *DashboardService) SetFilters(ctx context.Context, f domain.Filters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	s.Load(ctx)
}

// ClearFilters is SetFilters with no filter.
func (s *DashboardService) ClearFilters(ctx context.Context) {
	s.SetFilters(ctx, domain.Filters{})
}

// SetPeriod selects the summary month and refetches the summary.
func (s *DashboardService) SetPeriod(ctx context.Context, month, year int) error {
	if month < 1 || month > 12 || year < 1 {
		return &forms.ValidationError{Message: fmt.Sprintf("invalid period %d/%d", month, year), Fields: []string{"month", "year"}}
	}
	s.mu.Lock()
	s.month, s.year = month, year
	s.mu.Unlock()

	if s.session.IsAuthenticated() {
		s.loadSummary(ctx)
	}
	return nil
}

// BeginEdit makes tx the target of Update.
func (s *DashboardService) BeginEdit(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = &tx
}

func (s *DashboardService) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

// Create adds a transaction and reruns the load cycle. Invalid input is
// rejected before any request is made.
func (s *DashboardService) Create(ctx context.Context, in domain.TransactionInput) error {
	if err := forms.ValidateInput(in); err != nil {
		return err
	}

	s.setFormLoading(true)
	defer s.setFormLoading(false)

	if _, err := s.txs.Create(ctx, in); err != nil {
		s.log.Error().Err(err).Msg("failed to create transaction")
		s.setError(MsgCreateFailed)
		return fmt.Errorf("create transaction: %w", err)
	}
	s.setSuccess(MsgCreated)
	s.Load(ctx)
	return nil
}

// Update rewrites the transaction selected with BeginEdit. Without an edit
// target it does nothing.
func (s *DashboardService) Update(ctx context.Context, in domain.TransactionInput) error {
	s.mu.Lock()
	editing := s.editing
	s.mu.Unlock()
	if editing == nil {
		return nil
	}
	if err := forms.ValidateInput(in); err != nil {
		return err
	}

	s.setFormLoading(true)
	defer s.setFormLoading(false)

	if _, err := s.txs.Update(ctx, editing.ID, in); err != nil {
		s.log.Error().Err(err).Int64("transaction_id", editing.ID).Msg("failed to update transaction")
		s.setError(MsgUpdateFailed)
		return fmt.Errorf("update transaction %d: %w", editing.ID, err)
	}

	s.mu.Lock()
	if s.editing != nil && s.editing.ID == editing.ID {
		s.editing = nil
	}
	s.mu.Unlock()

	s.setSuccess(MsgUpdated)
	s.Load(ctx)
	return nil
}

// Delete removes tx after confirmation. The bool reports whether the user
// confirmed.
func (s *DashboardService) Delete(ctx context.Context, tx domain.Transaction) (bool, error) {
	if !s.confirm.Confirm(ctx, ConfirmDeletePrompt) {
		return false, nil
	}

	if err := s.txs.Delete(ctx, tx.ID); err != nil {
		s.log.Error().Err(err).Int64("transaction_id", tx.ID).Msg("failed to delete transaction")
		s.setError(MsgDeleteFailed)
		return true, fmt.Errorf("delete transaction %d: %w", tx.ID, err)
	}
	s.setSuccess(MsgDeleted)
	s.Load(ctx)
	return true, nil
}

// ExportReport downloads the report for the selected month.
func (s *DashboardService) ExportReport(ctx context.Context, format domain.ReportFormat) (*domain.Report, error) {
	if !format.Valid() {
		return nil, &forms.ValidationError{Message: fmt.Sprintf("unsupported report format %q", format), Fields: []string{"format"}}
	}
	s.mu.Lock()
	month, year := s.month, s.year
	s.mu.Unlock()

	report, err := s.reports.Download(ctx, month, year, format)
	if err != nil {
		s.log.Error().Err(err).Str("format", string(format)).Msg("failed to download report")
		s.setError(MsgReportFailed)
		return nil, fmt.Errorf("download report: %w", err)
	}
	return report, nil
}

// State returns a copy of the dashboard.
func (s *DashboardService) State() ports.DashboardState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := ports.DashboardState{
		Transactions:  make([]domain.Transaction, len(s.transactions)),
		Filters:       s.filters,
		Month:         s.month,
		Year:          s.year,
		ListLoading:   s.listLoading,
		FormLoading:   s.formLoading,
		ListFailed:    s.listFailed,
		SummaryFailed: s.summaryFailed,
	}
	copy(st.Transactions, s.transactions)
	if s.summary != nil {
		sum := *s.summary
		st.Summary = &sum
	}
	if s.editing != nil {
		tx := *s.editing
		st.Editing = &tx
	}
	if s.notification != nil {
		n := *s.notification
		st.Notification = &n
	}
	return st
}

func (s *DashboardService) setFormLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formLoading = v
}

func (s *DashboardService) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErrorLocked(msg)
}

func (s *DashboardService) setErrorLocked(msg string) {
	s.clearNotificationLocked()
	s.notification = &domain.Notification{Kind: domain.NotifyError, Message: msg}
}

// setSuccess shows a toast that clears itself after toastTTL unless another
// notification replaced it first.
func (s *DashboardService) setSuccess(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearNotificationLocked()
	s.notification = &domain.Notification{Kind: domain.NotifySuccess, Message: msg}
	seq := s.toastSeq
	s.toastTimer = s.afterFunc(s.toastTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.toastSeq == seq {
			s.notification = nil
			s.toastTimer = nil
		}
	})
}

// clearNotificationLocked removes the notification and disarms any pending
// toast timer.
func (s *DashboardService) clearNotificationLocked() {
	s.toastSeq++
	if s.toastTimer != nil {
		s.toastTimer.Stop()
		s.toastTimer = nil
	}
	s.notification = nil
	s.listError = false
	s.summaryError = false
}
