package models

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two supported trade sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Transaction is an immutable trade record in an account's ledger.
// Records are append-only; the ULID primary key is time-sortable, so
// (Timestamp, ID) gives a stable ordering that preserves insertion order
// for trades landing on the same millisecond.
type Transaction struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	AccountID string  `gorm:"index;not null" json:"account_id"`
	Symbol    string  `gorm:"index;not null" json:"symbol"`
	Side      Side    `gorm:"not null" json:"side"`
	Quantity  float64 `gorm:"not null" json:"quantity"`
	Price     float64 `gorm:"not null" json:"price"`
	Timestamp int64   `gorm:"index;not null" json:"timestamp"` // unix milliseconds
}
