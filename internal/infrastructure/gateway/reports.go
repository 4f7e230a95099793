package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

var reportContentTypes = map[domain.ReportFormat]string{
	domain.ReportCSV:  "text/csv",
	domain.ReportJSON: "application/json",
}

// Reports maps /me/summary and /me/reports/*.
type Reports struct {
	api Requester
}

func NewReports(api Requester) *Reports {
	return &Reports{api: api}
}

func periodQuery(month, year int) url.Values {
	return url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}
}

// MonthlySummary returns the backend-computed totals for one month.
func (g *Reports) MonthlySummary(ctx context.Context, month, year int) (*domain.MonthlySummary, error) {
	var out domain.MonthlySummary
	if err := g.api.Do(ctx, http.MethodGet, "/me/summary", periodQuery(month, year), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download fetches an export as raw bytes, named report_<year>_<month>.<format>.
func (g *Reports) Download(ctx context.Context, month, year int, format domain.ReportFormat) (*domain.Report, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("report format %q: %w", format, domain.ErrValidation)
	}
	contentType, body, err := g.api.Download(ctx, "/me/reports/"+string(format), periodQuery(month, year))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = reportContentTypes[format]
	}
	return &domain.Report{
		Format:      format,
		Filename:    domain.ReportFilename(month, year, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}
