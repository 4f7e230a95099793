package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MonthlySummary is the server-side aggregate for one calendar month.
type MonthlySummary struct {
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Balance       decimal.Decimal `json:"balance"`
	TopCategory   *string         `json:"top_category"`
}

// ReportFormat is the export format of a monthly report.
type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportJSON ReportFormat = "json"
)

// Valid reports whether f is a supported export format.
func (f ReportFormat) Valid() bool {
	return f == ReportCSV || f == ReportJSON
}

// ReportFilename returns the download name used for an exported report.
func ReportFilename(month, year int, format ReportFormat) string {
	return fmt.Sprintf("report_%d_%d.%s", year, month, format)
}

// Report is a downloaded export.
type Report struct {
	Format      ReportFormat
	Filename    string
	ContentType string
	Body        []byte
}
