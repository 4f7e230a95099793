package handler

import (
	"encoding/json"
	"time"
)

// --- Request types ---

type registerRequest struct {
	Name     string  `json:"name"     validate:"required"`
	Username string  `json:"username" validate:"required"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Amounts are accepted as JSON numbers or numeric strings.
type transactionRequest struct {
	Amount      json.Number `json:"amount"      validate:"required"`
	Date        string      `json:"date"        validate:"required,datetime=2006-01-02"`
	Category    string      `json:"category"    validate:"required"`
	Type        string      `json:"type"        validate:"required,oneof=income expense"`
	Description *string     `json:"description"`
}

// --- Response types ---

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type transactionResponse struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Description *string     `json:"description"`
}

type summaryResponse struct {
	Month         int         `json:"month"`
	Year          int         `json:"year"`
	TotalIncome   json.Number `json:"total_income"`
	TotalExpenses json.Number `json:"total_expenses"`
	Balance       json.Number `json:"balance"`
	TopCategory   *string     `json:"top_category"`
}

// errorResponse mirrors the envelope rendered by the API error handler.
type errorResponse struct {
	Detail string `json:"detail"`
}
