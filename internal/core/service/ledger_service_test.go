package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/db/memory"
)

func newLedger(t *testing.T) *LedgerService {
	t.Helper()
	return NewLedgerService(memory.NewTransactionRepository(), zerolog.Nop())
}

func entry(amount string, typ domain.TransactionType, category string, y, m, d int) domain.TransactionInput {
	return domain.TransactionInput{
		Amount:   decimal.RequireFromString(amount),
		Date:     domain.NewDate(y, time.Month(m), d),
		Category: category,
		Type:     typ,
	}
}

func seed(t *testing.T, svc *LedgerService, userID int64, ins ...domain.TransactionInput) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(ins))
	for _, in := range ins {
		created, err := svc.Create(context.Background(), userID, in)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, created.ID)
	}
	return ids
}

func TestLedger_CreateValidates(t *testing.T) {
	svc := newLedger(t)

	in := entry("0", domain.TransactionExpense, "Food", 2024, 5, 1)
	if _, err := svc.Create(context.Background(), 1, in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLedger_CreateNormalisesDescription(t *testing.T) {
	svc := newLedger(t)

	in := entry("12.50", domain.TransactionExpense, " Food ", 2024, 5, 1)
	in.Description = "   "
	created, err := svc.Create(context.Background(), 1, in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Description != nil || created.Category != "Food" || created.UserID != 1 {
		t.Fatalf("unexpected transaction: %+v", created)
	}
}

func TestLedger_ListIsScopedAndNewestFirst(t *testing.T) {
	svc := newLedger(t)
	seed(t, svc, 1,
		entry("10", domain.TransactionExpense, "Food", 2024, 5, 3),
		entry("20", domain.TransactionIncome, "Salary", 2024, 5, 7),
	)
	seed(t, svc, 2, entry("99", domain.TransactionExpense, "Food", 2024, 5, 5))

	txs, err := svc.List(context.Background(), 1, domain.Filters{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(txs) != 2 || txs[0].Date.Day() != 7 || txs[1].Date.Day() != 3 {
		t.Fatalf("unexpected list: %+v", txs)
	}
}

func TestLedger_ListFilters(t *testing.T) {
	svc := newLedger(t)
	seed(t, svc, 1,
		entry("10", domain.TransactionExpense, "Food", 2024, 4, 30),
		entry("15", domain.TransactionExpense, "food", 2024, 5, 2),
		entry("20", domain.TransactionIncome, "Salary", 2024, 5, 7),
		entry("30", domain.TransactionExpense, "Rent", 2024, 5, 31),
	)

	cases := []struct {
		name    string
		filters domain.Filters
		want    int
	}{
		{"category case-insensitive", domain.Filters{Category: "FOOD"}, 2},
		{"type", domain.Filters{Type: domain.TransactionExpense}, 3},
		{"start date inclusive", domain.Filters{StartDate: "2024-05-02"}, 3},
		{"end date inclusive", domain.Filters{EndDate: "2024-05-07"}, 3},
		{"combined", domain.Filters{Type: domain.TransactionExpense, StartDate: "2024-05-01", EndDate: "2024-05-31"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txs, err := svc.List(context.Background(), 1, tc.filters)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(txs) != tc.want {
				t.Fatalf("expected %d transactions, got %d", tc.want, len(txs))
			}
		})
	}
}

func TestLedger_ListRejectsBadFilters(t *testing.T) {
	svc := newLedger(t)

	for _, f := range []domain.Filters{{Type: "transfer"}, {StartDate: "May 1"}, {EndDate: "2024-13-01"}} {
		if _, err := svc.List(context.Background(), 1, f); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", f, err)
		}
	}
}

func TestLedger_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	svc := newLedger(t)
	ids := seed(t, svc, 1, entry("10", domain.TransactionExpense, "Food", 2024, 5, 3))

	in := entry("11", domain.TransactionExpense, "Groceries", 2024, 5, 4)
	if _, err := svc.Update(context.Background(), 2, ids[0], in); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound for another user, got %v", err)
	}
	updated, err := svc.Update(context.Background(), 1, ids[0], in)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Category != "Groceries" || !updated.Amount.Equal(decimal.NewFromInt(11)) {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if err := svc.Delete(context.Background(), 2, ids[0]); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound for another user, got %v", err)
	}
	if err := svc.Delete(context.Background(), 1, ids[0]); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), 1, ids[0]); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound on second delete, got %v", err)
	}
}

func TestLedger_MonthlySummary(t *testing.T) {
	svc := newLedger(t)
	seed(t, svc, 1,
		entry("3000", domain.TransactionIncome, "Salary", 2024, 5, 1),
		entry("120.50", domain.TransactionExpense, "Food", 2024, 5, 3),
		entry("80", domain.TransactionExpense, "Food", 2024, 5, 20),
		entry("900", domain.TransactionExpense, "Rent", 2024, 5, 31),
		entry("500", domain.TransactionExpense, "Travel", 2024, 6, 1),
	)

	sum, err := svc.MonthlySummary(context.Background(), 1, 5, 2024)
	if err != nil {
		t.Fatalf("MonthlySummary returned error: %v", err)
	}
	if !sum.TotalIncome.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected income: %s", sum.TotalIncome)
	}
	if !sum.TotalExpenses.Equal(decimal.RequireFromString("1100.50")) {
		t.Fatalf("unexpected expenses: %s", sum.TotalExpenses)
	}
	if !sum.Balance.Equal(decimal.RequireFromString("1899.50")) {
		t.Fatalf("unexpected balance: %s", sum.Balance)
	}
	if sum.TopCategory == nil || *sum.TopCategory != "Rent" {
		t.Fatalf("unexpected top category: %v", sum.TopCategory)
	}
}

func TestLedger_MonthlySummaryEmptyMonth(t *testing.T) {
	svc := newLedger(t)

	sum, err := svc.MonthlySummary(context.Background(), 1, 2, 2024)
	if err != nil {
		t.Fatalf("MonthlySummary returned error: %v", err)
	}
	if !sum.Balance.IsZero() || sum.TopCategory != nil {
		t.Fatalf("expected an empty summary, got %+v", sum)
	}
}

func TestLedger_MonthlySummaryTieGoesToFirstName(t *testing.T) {
	svc := newLedger(t)
	seed(t, svc, 1,
		entry("50", domain.TransactionExpense, "Utilities", 2024, 5, 1),
		entry("50", domain.TransactionExpense, "Books", 2024, 5, 2),
	)

	sum, _ := svc.MonthlySummary(context.Background(), 1, 5, 2024)
	if sum.TopCategory == nil || *sum.TopCategory != "Books" {
		t.Fatalf("expected Books, got %v", sum.TopCategory)
	}
}

func TestLedger_MonthlySummaryRejectsBadPeriod(t *testing.T) {
	svc := newLedger(t)

	if _, err := svc.MonthlySummary(context.Background(), 1, 13, 2024); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLedger_CSVReport(t *testing.T) {
	svc := newLedger(t)
	in := entry("12.5", domain.TransactionExpense, "Food", 2024, 5, 3)
	in.Description = "lunch, with team"
	seed(t, svc, 1, in)

	report, err := svc.Report(context.Background(), 1, 5, 2024, domain.ReportCSV)
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if report.Filename != "report_2024_5.csv" || report.ContentType != ContentTypeCSV {
		t.Fatalf("unexpected report metadata: %+v", report)
	}

	rows, err := csv.NewReader(strings.NewReader(string(report.Body))).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %v", rows)
	}
	want := []string{"1", "2024-05-03", "expense", "Food", "12.50", "lunch, with team"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Fatalf("column %d: expected %q, got %q", i, want[i], rows[1][i])
		}
	}
}

func TestLedger_JSONReport(t *testing.T) {
	svc := newLedger(t)
	seed(t, svc, 1, entry("40", domain.TransactionIncome, "Gift", 2024, 5, 9))

	report, err := svc.Report(context.Background(), 1, 5, 2024, domain.ReportJSON)
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	var body struct {
		Summary      domain.MonthlySummary `json:"summary"`
		Transactions []domain.Transaction  `json:"transactions"`
	}
	if err := json.Unmarshal(report.Body, &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Transactions) != 1 || !body.Summary.TotalIncome.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected report body: %s", report.Body)
	}
}

func TestLedger_ReportRejectsUnknownFormat(t *testing.T) {
	svc := newLedger(t)

	if _, err := svc.Report(context.Background(), 1, 5, 2024, "xlsx"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
