package service

import (
	"sort"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// SortForDisplay returns a copy of txs ordered newest first. Transactions on
// the same date are ordered by descending id.
func SortForDisplay(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
