package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paper-trader-go/internal/config"
	"paper-trader-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	CategoryFavorites = "favorites"
	CategoryWatchlist = "watchlist"
)

// ErrInvalidCategory is returned for categories other than favorites/watchlist.
var ErrInvalidCategory = errors.New("invalid watch category")

// Service manages per-account symbol lists. A missing list is seeded with
// the configured defaults on first read.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	cfg    *config.Trading
}

// NewService creates a watchlist service.
func NewService(db *gorm.DB, cfg *config.Trading, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger, cfg: cfg}
}

func (s *Service) defaults(category string) []string {
	if category == CategoryFavorites {
		return s.cfg.DefaultFavorites
	}
	return s.cfg.DefaultWatchlist
}

// Get returns the account's symbol list for the category, seeding it with
// defaults if it does not exist yet.
func (s *Service) Get(ctx context.Context, accountID, category string) ([]string, error) {
	if category != CategoryFavorites && category != CategoryWatchlist {
		return nil, ErrInvalidCategory
	}

	var list models.Watchlist
	err := s.db.WithContext(ctx).
		First(&list, "account_id = ? AND category = ?", accountID, category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		symbols := s.defaults(category)
		list = models.Watchlist{
			AccountID: accountID,
			Category:  category,
			Symbols:   strings.Join(symbols, ","),
		}
		if err := s.db.WithContext(ctx).Create(&list).Error; err != nil {
			return nil, fmt.Errorf("failed to seed watchlist: %w", err)
		}
		s.logger.Info("Seeded default watchlist",
			zap.String("account_id", accountID), zap.String("category", category))
		return symbols, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	return splitSymbols(list.Symbols), nil
}

// Remove deletes a symbol from the account's list and returns the updated
// list. Removing a symbol that is not present is a no-op.
func (s *Service) Remove(ctx context.Context, accountID, category, symbol string) ([]string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}

	current, err := s.Get(ctx, accountID, category)
	if err != nil {
		return nil, err
	}

	updated := make([]string, 0, len(current))
	for _, sym := range current {
		if sym != symbol {
			updated = append(updated, sym)
		}
	}

	err = s.db.WithContext(ctx).
		Model(&models.Watchlist{}).
		Where("account_id = ? AND category = ?", accountID, category).
		Update("symbols", strings.Join(updated, ",")).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update watchlist: %w", err)
	}
	return updated, nil
}

func splitSymbols(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}
