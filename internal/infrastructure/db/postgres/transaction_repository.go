package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

// Amounts and dates cross the wire as text so the exact decimal and the
// calendar day survive without driver-specific codecs.
const transactionColumns = `id, user_id, amount::text, to_char(date, 'YYYY-MM-DD'), category, type, description`

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := *tx
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, date, category, type, description)
		VALUES ($1, $2::text::numeric, $3::text::date, $4, $5, $6)
		RETURNING id
	`, tx.UserID, tx.Amount.String(), tx.Date.String(), tx.Category, string(tx.Type), tx.Description).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &created, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET amount = $3::text::numeric, date = $4::text::date, category = $5, type = $6, description = $7
		WHERE id = $1 AND user_id = $2
	`, tx.ID, tx.UserID, tx.Amount.String(), tx.Date.String(), tx.Category, string(tx.Type), tx.Description)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTransactionNotFound
	}
	updated := *tx
	return &updated, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) FindByUser(ctx context.Context, userID int64, q ports.TransactionQuery) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args := listQuery(userID, q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

// listQuery builds the filtered, date-ordered select for one user.
func listQuery(userID int64, q ports.TransactionQuery) (string, []any) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.Category != "" {
		add("lower(category) = lower($%d)", q.Category)
	}
	if q.Type != "" {
		add("type = $%d", string(q.Type))
	}
	if !q.From.IsZero() {
		add("date >= $%d::text::date", q.From.String())
	}
	if !q.To.IsZero() {
		add("date <= $%d::text::date", q.To.String())
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date, id`
	return query, args
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx           domain.Transaction
		amount, date string
		typ          string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &amount, &date, &tx.Category, &typ, &tx.Description); err != nil {
		return nil, err
	}

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("decode amount of transaction %d: %w", tx.ID, err)
	}
	if tx.Date, err = domain.ParseDate(date); err != nil {
		return nil, err
	}
	tx.Type = domain.TransactionType(typ)
	return &tx, nil
}
