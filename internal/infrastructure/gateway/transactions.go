package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// transactionBody is the JSON body of create and update calls. Amounts go out
// as JSON numbers.
type transactionBody struct {
	Amount      json.Number            `json:"amount"`
	Date        string                 `json:"date"`
	Category    string                 `json:"category"`
	Type        domain.TransactionType `json:"type"`
	Description *string                `json:"description"`
}

func newTransactionBody(in domain.TransactionInput) transactionBody {
	body := transactionBody{
		Amount:   json.Number(in.Amount.String()),
		Date:     in.Date.String(),
		Category: in.Category,
		Type:     in.Type,
	}
	if in.Description != "" {
		desc := in.Description
		body.Description = &desc
	}
	return body
}

// filterQuery omits every empty filter.
func filterQuery(f domain.Filters) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	return q
}

// Transactions maps /me/transactions.
type Transactions struct {
	api Requester
}

func NewTransactions(api Requester) *Transactions {
	return &Transactions{api: api}
}

// List returns the caller's transactions in server order.
func (g *Transactions) List(ctx context.Context, f domain.Filters) ([]domain.Transaction, error) {
	var out []domain.Transaction
	if err := g.api.Do(ctx, http.MethodGet, "/me/transactions", filterQuery(f), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Transaction{}
	}
	return out, nil
}

func (g *Transactions) Create(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := g.api.Do(ctx, http.MethodPost, "/me/transactions", nil, newTransactionBody(in), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Transactions) Update(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := g.api.Do(ctx, http.MethodPut, transactionPath(id), nil, newTransactionBody(in), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Transactions) Delete(ctx context.Context, id int64) error {
	return g.api.Do(ctx, http.MethodDelete, transactionPath(id), nil, nil, nil)
}

func transactionPath(id int64) string {
	return "/me/transactions/" + strconv.FormatInt(id, 10)
}
