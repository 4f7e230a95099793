package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/budgettracker/budget-tracker/internal/api/metrics"
	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// ReportHandler serves monthly aggregates and exports.
type ReportHandler struct {
	service ports.LedgerService
}

func NewReportHandler(service ports.LedgerService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary handles GET /me/summary.
//
// @Summary      Monthly summary
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        month  query     int  true  "Month, 1-12"
// @Param        year   query     int  true  "Year"
// @Success      200    {object}  summaryResponse
// @Failure      422    {object}  errorResponse
// @Router       /me/summary [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	month, year, err := period(c)
	if err != nil {
		return err
	}

	sum, err := h.service.MonthlySummary(c.Request().Context(), userID, month, year)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryResponse(sum))
}

// Download handles GET /me/reports/:format.
//
// @Summary      Export a monthly report
// @Tags         reports
// @Produce      text/csv,application/json
// @Security     BearerAuth
// @Param        format  path      string  true  "csv or json"
// @Param        month   query     int     true  "Month, 1-12"
// @Param        year    query     int     true  "Year"
// @Success      200
// @Failure      404     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /me/reports/{format} [get]
func (h *ReportHandler) Download(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	format := domain.ReportFormat(c.Param("format"))
	if !format.Valid() {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown report format")
	}
	month, year, err := period(c)
	if err != nil {
		return err
	}

	report, err := h.service.Report(c.Request().Context(), userID, month, year, format)
	if err != nil {
		return err
	}
	metrics.ReportsGeneratedTotal.WithLabelValues(string(format)).Inc()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return c.Blob(http.StatusOK, report.ContentType, report.Body)
}

func period(c echo.Context) (month, year int, err error) {
	if err := echo.QueryParamsBinder(c).
		MustInt("month", &month).
		MustInt("year", &year).
		BindError(); err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "month and year are required integers")
	}
	return month, year, nil
}
