// Package ui renders dashboard state for a terminal with lipgloss.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/service"
)

// Placeholder texts.
const (
	NoSummary      = "Select a month to view your summary."
	NoTransactions = "No transactions recorded yet. Start by adding one."
	Missing        = "—"
)

var (
	incomeColor  = lipgloss.Color("#16a34a")
	expenseColor = lipgloss.Color("#f43f5e")
	balanceColor = lipgloss.Color("#2563eb")
	topColor     = lipgloss.Color("#9333ea")
	mutedColor   = lipgloss.Color("#6b7280")

	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Width(20)
	labelStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(expenseColor).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(incomeColor).Padding(0, 1)
)

// Money formats an amount as $1234.50.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func card(label, value string, accent lipgloss.Color) string {
	body := labelStyle.Render(label) + "\n" + titleStyle.Foreground(accent).Render(value)
	return cardStyle.BorderForeground(accent).Render(body)
}

// SummaryCards renders the four monthly figures side by side.
func SummaryCards(s *domain.MonthlySummary) string {
	if s == nil {
		return mutedStyle.Render(NoSummary)
	}
	top := Missing
	if s.TopCategory != nil && *s.TopCategory != "" {
		top = *s.TopCategory
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Income", Money(s.TotalIncome), incomeColor),
		card("Expenses", Money(s.TotalExpenses), expenseColor),
		card("Balance", Money(s.Balance), balanceColor),
		card("Top Category", top, topColor),
	)
}

// TransactionTable renders txs newest first.
func TransactionTable(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return mutedStyle.Render(NoTransactions)
	}

	sorted := service.SortForDisplay(txs)
	rows := make([][]string, 0, len(sorted))
	for _, tx := range sorted {
		sign := "-"
		if tx.Type == domain.TransactionIncome {
			sign = "+"
		}
		desc := Missing
		if tx.Description != nil && *tx.Description != "" {
			desc = *tx.Description
		}
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.Format("Jan 2, 2006"),
			string(tx.Type),
			tx.Category,
			sign + Money(tx.Amount),
			desc,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers("ID", "Date", "Type", "Category", "Amount", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 {
				if sorted[row].Type == domain.TransactionIncome {
					return cellStyle.Foreground(incomeColor)
				}
				return cellStyle.Foreground(expenseColor)
			}
			return cellStyle
		}).
		Render()
}

// Notification renders the dashboard banner, or "" when there is none.
func Notification(n *domain.Notification) string {
	if n == nil {
		return ""
	}
	if n.Kind == domain.NotifyError {
		return errorStyle.Render(n.Message)
	}
	return okStyle.Render(n.Message)
}

// ProfileCard renders the signed-in user.
func ProfileCard(u domain.User) string {
	handle := "@" + u.Username
	if u.Email != nil && *u.Email != "" {
		handle += " · " + *u.Email
	}
	lines := []string{
		labelStyle.Render("Profile"),
		titleStyle.Render(u.Name),
		mutedStyle.Render(handle),
	}
	if !u.CreatedAt.IsZero() {
		lines = append(lines, labelStyle.Render("Member since ")+u.CreatedAt.Format("January 2, 2006"))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// Period renders a month/year heading such as "May 2024".
func Period(month, year int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%d/%d", month, year)
	}
	return titleStyle.Render(fmt.Sprintf("%s %d", time.Month(month), year))
}
