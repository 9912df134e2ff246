package models

import "time"

// Account represents a paper-trading user account. The balance is the only
// mutable field and is only ever written by the trade executor.
type Account struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Balance   float64   `gorm:"not null" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
