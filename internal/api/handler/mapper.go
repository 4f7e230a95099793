package handler

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// --- Request → Service input ---

func toTransactionInput(req transactionRequest) (domain.TransactionInput, error) {
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return domain.TransactionInput{}, fmt.Errorf("%w: amount must be a number", domain.ErrValidation)
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return domain.TransactionInput{}, fmt.Errorf("%w: date must match 2006-01-02", domain.ErrValidation)
	}

	in := domain.TransactionInput{
		Amount:   amount,
		Date:     date,
		Category: req.Category,
		Type:     domain.TransactionType(req.Type),
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	return in, nil
}

// --- Domain → Response ---

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(res *domain.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		User:        toUserResponse(res.User),
	}
}

func toTransactionResponse(tx domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Amount:      money(tx.Amount),
		Date:        tx.Date.String(),
		Category:    tx.Category,
		Type:        string(tx.Type),
		Description: tx.Description,
	}
}

func toSummaryResponse(s *domain.MonthlySummary) summaryResponse {
	return summaryResponse{
		Month:         s.Month,
		Year:          s.Year,
		TotalIncome:   money(s.TotalIncome),
		TotalExpenses: money(s.TotalExpenses),
		Balance:       money(s.Balance),
		TopCategory:   s.TopCategory,
	}
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
