// Package memory holds the in-process repositories the development backend
// uses when no database is configured. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// Store bundles both repositories behind one lock domain each.
type Store struct {
	Accounts     *AccountRepository
	Transactions *TransactionRepository
}

func NewStore() *Store {
	return &Store{
		Accounts:     NewAccountRepository(),
		Transactions: NewTransactionRepository(),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

type AccountRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{byID: make(map[int64]domain.Account)}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Username, account.Username) {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := *account
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	return &stored, nil
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if strings.EqualFold(a.Username, username) {
			return &a, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *AccountRepository) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &a, nil
}

type TransactionRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{byID: make(map[int64]domain.Transaction)}
}

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

func (r *TransactionRepository) Create(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := cloneTransaction(*tx)
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	out := cloneTransaction(stored)
	return &out, nil
}

func (r *TransactionRepository) Update(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[tx.ID]
	if !ok || current.UserID != tx.UserID {
		return nil, domain.ErrTransactionNotFound
	}
	stored := cloneTransaction(*tx)
	r.byID[stored.ID] = stored
	out := cloneTransaction(stored)
	return &out, nil
}

func (r *TransactionRepository) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok || current.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *TransactionRepository) FindByID(_ context.Context, userID, id int64) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.byID[id]
	if !ok || tx.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	out := cloneTransaction(tx)
	return &out, nil
}

func (r *TransactionRepository) FindByUser(_ context.Context, userID int64, q ports.TransactionQuery) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, tx := range r.byID {
		if tx.UserID == userID && matches(tx, q) {
			out = append(out, cloneTransaction(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(tx domain.Transaction, q ports.TransactionQuery) bool {
	switch {
	case q.Category != "" && !strings.EqualFold(tx.Category, q.Category):
		return false
	case q.Type != "" && tx.Type != q.Type:
		return false
	case !q.From.IsZero() && tx.Date.Before(q.From.Time):
		return false
	case !q.To.IsZero() && tx.Date.After(q.To.Time):
		return false
	}
	return true
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	if tx.Description != nil {
		d := *tx.Description
		tx.Description = &d
	}
	return tx
}
