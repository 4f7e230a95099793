package forms

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// MsgTransactionInvalid is shown when amount, category or date is unusable.
const MsgTransactionInvalid = "Please provide a positive amount, category, and date."

// TransactionForm is the raw, string-typed transaction editor.
type TransactionForm struct {
	Amount      string `validate:"notblank"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Category    string `validate:"notblank"`
	Type        string `validate:"omitempty,oneof=income expense"`
	Description string
}

var suggestedCategories = map[domain.TransactionType][]string{
	domain.TransactionIncome:  {"Salary", "Freelance", "Investments", "Gift"},
	domain.TransactionExpense: {"Food", "Rent", "Utilities", "Transport", "Entertainment", "Healthcare"},
}

// SuggestedCategories returns the quick-pick categories for a transaction type.
func SuggestedCategories(t domain.TransactionType) []string {
	out := make([]string, len(suggestedCategories[t]))
	copy(out, suggestedCategories[t])
	return out
}

// TransactionFormFrom seeds a form with an existing transaction for editing.
func TransactionFormFrom(in domain.TransactionInput) TransactionForm {
	f := TransactionForm{
		Date:        in.Date.String(),
		Category:    in.Category,
		Type:        string(in.Type),
		Description: in.Description,
	}
	if !in.Amount.IsZero() {
		f.Amount = in.Amount.String()
	}
	return f
}

// ToInput validates the form and converts it into a TransactionInput.
// Type defaults to expense.
func (f TransactionForm) ToInput() (domain.TransactionInput, error) {
	if verr := check(f); verr != nil {
		if len(verr.Fields) == 1 && verr.Fields[0] == "type" {
			return domain.TransactionInput{}, verr
		}
		return domain.TransactionInput{}, &ValidationError{Message: MsgTransactionInvalid, Fields: verr.Fields}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(f.Amount))
	if err != nil || !amount.IsPositive() {
		return domain.TransactionInput{}, &ValidationError{Message: MsgTransactionInvalid, Fields: []string{"amount"}}
	}
	date, err := domain.ParseDate(f.Date)
	if err != nil {
		return domain.TransactionInput{}, &ValidationError{Message: MsgTransactionInvalid, Fields: []string{"date"}}
	}

	typ := domain.TransactionType(f.Type)
	if typ == "" {
		typ = domain.TransactionExpense
	}

	return domain.TransactionInput{
		Amount:      amount,
		Date:        date,
		Category:    strings.TrimSpace(f.Category),
		Type:        typ,
		Description: strings.TrimSpace(f.Description),
	}, nil
}

// ValidateInput applies the same rules to an already-typed input.
func ValidateInput(in domain.TransactionInput) error {
	switch {
	case !in.Amount.IsPositive(),
		strings.TrimSpace(in.Category) == "",
		in.Date.IsZero():
		return &ValidationError{Message: MsgTransactionInvalid}
	case !in.Type.Valid():
		return &ValidationError{Message: "type must be one of: income expense", Fields: []string{"type"}}
	}
	return nil
}
