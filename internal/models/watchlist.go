package models

import "gorm.io/gorm"

// Watchlist stores a user's symbol list for one category ("favorites" or
// "watchlist"). Symbols are kept as a comma-joined string; tickers never
// contain commas.
type Watchlist struct {
	gorm.Model
	AccountID string `gorm:"uniqueIndex:idx_account_category;not null"`
	Category  string `gorm:"uniqueIndex:idx_account_category;not null"`
	Symbols   string
}
