package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/forms"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// Report content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeJSON = "application/json"
)

var csvHeader = []string{"id", "date", "type", "category", "amount", "description"}

// LedgerService implements the per-user transaction book of the development
// backend.
type LedgerService struct {
	repo ports.TransactionRepository
	log  zerolog.Logger
}

func NewLedgerService(repo ports.TransactionRepository, log zerolog.Logger) *LedgerService {
	return &LedgerService{repo: repo, log: log}
}

// List returns the user's transactions matching filters, newest first.
func (s *LedgerService) List(ctx context.Context, userID int64, filters domain.Filters) ([]domain.Transaction, error) {
	q, err := queryFromFilters(filters)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.FindByUser(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return SortForDisplay(txs), nil
}

func (s *LedgerService) Create(ctx context.Context, userID int64, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := forms.ValidateInput(in); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, newTransaction(userID, 0, in))
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	s.log.Debug().Int64("user_id", userID).Int64("id", created.ID).Msg("transaction created")
	return created, nil
}

func (s *LedgerService) Update(ctx context.Context, userID, id int64, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := forms.ValidateInput(in); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, newTransaction(userID, id, in))
	if err != nil {
		return nil, fmt.Errorf("update transaction %d: %w", id, err)
	}
	return updated, nil
}

func (s *LedgerService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// MonthlySummary totals the user's income and expenses for one month. The
// top category is the expense category with the largest total; ties go to
// the alphabetically first name.
func (s *LedgerService) MonthlySummary(ctx context.Context, userID int64, month, year int) (*domain.MonthlySummary, error) {
	txs, err := s.monthTransactions(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	return summarize(month, year, txs), nil
}

// Report renders the month's transactions as a downloadable document.
func (s *LedgerService) Report(ctx context.Context, userID int64, month, year int, format domain.ReportFormat) (*domain.Report, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unsupported report format %q", domain.ErrValidation, format)
	}
	txs, err := s.monthTransactions(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Format:   format,
		Filename: domain.ReportFilename(month, year, format),
	}
	switch format {
	case domain.ReportCSV:
		report.ContentType = ContentTypeCSV
		report.Body, err = renderCSV(txs)
	case domain.ReportJSON:
		report.ContentType = ContentTypeJSON
		report.Body, err = renderJSON(summarize(month, year, txs), txs)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}
	return report, nil
}

func (s *LedgerService) monthTransactions(ctx context.Context, userID int64, month, year int) ([]domain.Transaction, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, fmt.Errorf("%w: invalid period %d/%d", domain.ErrValidation, month, year)
	}
	first := domain.NewDate(year, time.Month(month), 1)
	last := domain.Date{Time: first.AddDate(0, 1, -1)}

	txs, err := s.repo.FindByUser(ctx, userID, ports.TransactionQuery{From: first, To: last})
	if err != nil {
		return nil, fmt.Errorf("month transactions: %w", err)
	}
	return txs, nil
}

func newTransaction(userID, id int64, in domain.TransactionInput) *domain.Transaction {
	tx := &domain.Transaction{
		ID:       id,
		UserID:   userID,
		Amount:   in.Amount,
		Date:     in.Date,
		Category: strings.TrimSpace(in.Category),
		Type:     in.Type,
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		tx.Description = &d
	}
	return tx
}

func queryFromFilters(f domain.Filters) (ports.TransactionQuery, error) {
	q := ports.TransactionQuery{Category: strings.TrimSpace(f.Category), Type: f.Type}
	if q.Type != "" && !q.Type.Valid() {
		return q, fmt.Errorf("%w: unknown transaction type %q", domain.ErrValidation, q.Type)
	}
	var err error
	if f.StartDate != "" {
		if q.From, err = domain.ParseDate(f.StartDate); err != nil {
			return q, fmt.Errorf("%w: start_date: %v", domain.ErrValidation, err)
		}
	}
	if f.EndDate != "" {
		if q.To, err = domain.ParseDate(f.EndDate); err != nil {
			return q, fmt.Errorf("%w: end_date: %v", domain.ErrValidation, err)
		}
	}
	return q, nil
}

func summarize(month, year int, txs []domain.Transaction) *domain.MonthlySummary {
	sum := &domain.MonthlySummary{
		Month:         month,
		Year:          year,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	byCategory := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionIncome:
			sum.TotalIncome = sum.TotalIncome.Add(tx.Amount)
		case domain.TransactionExpense:
			sum.TotalExpenses = sum.TotalExpenses.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpenses)

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if sum.TopCategory == nil || byCategory[name].GreaterThan(byCategory[*sum.TopCategory]) {
			top := name
			sum.TopCategory = &top
		}
	}
	return sum
}

func renderCSV(txs []domain.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		desc := ""
		if tx.Description != nil {
			desc = *tx.Description
		}
		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			tx.Amount.StringFixed(2),
			desc,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type jsonReport struct {
	Summary      *domain.MonthlySummary `json:"summary"`
	Transactions []domain.Transaction   `json:"transactions"`
}

func renderJSON(sum *domain.MonthlySummary, txs []domain.Transaction) ([]byte, error) {
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return json.MarshalIndent(jsonReport{Summary: sum, Transactions: txs}, "", "  ")
}
