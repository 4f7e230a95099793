package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
)

const transactionsCollection = "transactions"

type TransactionRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{db: db, col: db.Collection(transactionsCollection)}
}

// Dates are stored as YYYY-MM-DD strings so range filters compare lexically.
type mongoTransaction struct {
	ID          int64                `bson:"_id"`
	UserID      int64                `bson:"user_id"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        string               `bson:"date"`
	Category    string               `bson:"category"`
	Type        string               `bson:"type"`
	Description *string              `bson:"description,omitempty"`
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, transactionsCollection)
	if err != nil {
		return nil, err
	}
	doc, err := toDocument(id, tx)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return doc.toDomain()
}

func (r *TransactionRepository) Update(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toDocument(tx.ID, tx)
	if err != nil {
		return nil, err
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": tx.ID, "user_id": tx.UserID}, doc)
	if err != nil {
		return nil, fmt.Errorf("replace transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrTransactionNotFound
	}
	return doc.toDomain()
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTransaction
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

func (r *TransactionRepository) FindByUser(ctx context.Context, userID int64, q ports.TransactionQuery) ([]domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, queryFilter(userID, q), opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Transaction, 0)
	for cur.Next(ctx) {
		var doc mongoTransaction
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		tx, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, cur.Err()
}

// EnsureIndexes creates necessary indexes on the transactions collection.
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func queryFilter(userID int64, q ports.TransactionQuery) bson.M {
	filter := bson.M{"user_id": userID}
	if q.Category != "" {
		filter["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q.Category) + "$", Options: "i"}
	}
	if q.Type != "" {
		filter["type"] = string(q.Type)
	}
	dateRange := bson.M{}
	if !q.From.IsZero() {
		dateRange["$gte"] = q.From.String()
	}
	if !q.To.IsZero() {
		dateRange["$lte"] = q.To.String()
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	return filter
}

func toDocument(id int64, tx *domain.Transaction) (mongoTransaction, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return mongoTransaction{}, fmt.Errorf("encode amount %s: %w", tx.Amount, err)
	}
	return mongoTransaction{
		ID:          id,
		UserID:      tx.UserID,
		Amount:      amount,
		Date:        tx.Date.String(),
		Category:    tx.Category,
		Type:        string(tx.Type),
		Description: tx.Description,
	}, nil
}

func (doc mongoTransaction) toDomain() (*domain.Transaction, error) {
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount of transaction %d: %w", doc.ID, err)
	}
	date, err := domain.ParseDate(doc.Date)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		ID:          doc.ID,
		UserID:      doc.UserID,
		Amount:      amount,
		Date:        date,
		Category:    doc.Category,
		Type:        domain.TransactionType(doc.Type),
		Description: doc.Description,
	}, nil
}
