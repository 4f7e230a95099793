package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/budgettracker/budget-tracker/internal/api/metrics"
	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// TransactionHandler handles the caller's transaction book.
type TransactionHandler struct {
	service ports.LedgerService
}

func NewTransactionHandler(service ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// List handles GET /me/transactions.
//
// @Summary      List transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        category    query     string  false  "Category, case-insensitive"
// @Param        type        query     string  false  "income or expense"
// @Param        start_date  query     string  false  "Inclusive lower bound, YYYY-MM-DD"
// @Param        end_date    query     string  false  "Inclusive upper bound, YYYY-MM-DD"
// @Success      200         {array}   transactionResponse
// @Failure      401         {object}  errorResponse
// @Failure      422         {object}  errorResponse
// @Router       /me/transactions [get]
func (h *TransactionHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var f domain.Filters
	var typ string
	if err := echo.QueryParamsBinder(c).
		String("category", &f.Category).
		String("type", &typ).
		String("start_date", &f.StartDate).
		String("end_date", &f.EndDate).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query")
	}
	f.Type = domain.TransactionType(typ)

	txs, err := h.service.List(c.Request().Context(), userID, f)
	if err != nil {
		return err
	}

	resp := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	return c.JSON(http.StatusOK, resp)
}

// Create handles POST /me/transactions.
//
// @Summary      Create a transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transactionRequest  true  "Transaction"
// @Success      201   {object}  transactionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /me/transactions [post]
func (h *TransactionHandler) Create(c echo.Context) error {
	userID, in, err := h.bindInput(c)
	if err != nil {
		return err
	}

	tx, err := h.service.Create(c.Request().Context(), userID, in)
	if err != nil {
		return err
	}
	metrics.TransactionsMutatedTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toTransactionResponse(*tx))
}

// Update handles PUT /me/transactions/:id.
//
// @Summary      Replace a transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Transaction ID"
// @Param        body  body      transactionRequest  true  "Transaction"
// @Success      200   {object}  transactionResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /me/transactions/{id} [put]
func (h *TransactionHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	userID, in, err := h.bindInput(c)
	if err != nil {
		return err
	}

	tx, err := h.service.Update(c.Request().Context(), userID, id, in)
	if err != nil {
		return err
	}
	metrics.TransactionsMutatedTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, toTransactionResponse(*tx))
}

// Delete handles DELETE /me/transactions/:id.
//
// @Summary      Delete a transaction
// @Tags         transactions
// @Security     BearerAuth
// @Param        id   path      int  true  "Transaction ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /me/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}
	metrics.TransactionsMutatedTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

func (h *TransactionHandler) bindInput(c echo.Context) (int64, domain.TransactionInput, error) {
	userID, err := ctxUserID(c)
	if err != nil {
		return 0, domain.TransactionInput{}, err
	}

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return 0, domain.TransactionInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return 0, domain.TransactionInput{}, err
	}

	in, err := toTransactionInput(req)
	if err != nil {
		return 0, domain.TransactionInput{}, err
	}
	return userID, in, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
	}
	return id, nil
}
