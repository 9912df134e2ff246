package ledger

import (
	"context"
	"errors"
	"fmt"

	"paper-trader-go/internal/models"

	"gorm.io/gorm"
)

// ListOptions narrows and orders a transaction listing. The zero value lists
// the full history ascending by time.
type ListOptions struct {
	Symbol     string
	Descending bool
}

// Store is the persistence boundary for accounts and their ledgers. Balances
// are only written through SetBalance and transactions are append-only.
type Store interface {
	CreateAccount(ctx context.Context, acct *models.Account) error
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	SetBalance(ctx context.Context, accountID string, balance float64) error
	AppendTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, accountID string, opts ListOptions) ([]models.Transaction, error)

	// Transact runs fn against a store bound to a single database
	// transaction; fn returning an error rolls everything back.
	Transact(ctx context.Context, fn func(Store) error) error
}

// GormStore implements Store on a gorm database.
type GormStore struct {
	db *gorm.DB
}

// ensure GormStore implements the interface
var _ Store = (*GormStore)(nil)

// NewStore creates a Store backed by the given database.
func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateAccount(ctx context.Context, acct *models.Account) error {
	if err := s.db.WithContext(ctx).Create(acct).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *GormStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var acct models.Account
	err := s.db.WithContext(ctx).First(&acct, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &acct, nil
}

func (s *GormStore) SetBalance(ctx context.Context, accountID string, balance float64) error {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	return nil
}

func (s *GormStore) AppendTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (s *GormStore) ListTransactions(ctx context.Context, accountID string, opts ListOptions) ([]models.Transaction, error) {
	order := "timestamp asc, id asc"
	if opts.Descending {
		order = "timestamp desc, id desc"
	}

	query := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order(order)
	if opts.Symbol != "" {
		query = query.Where("symbol = ?", opts.Symbol)
	}

	var txs []models.Transaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
