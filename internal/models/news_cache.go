package models

import "time"

// NewsCache holds one day's worth of fetched headlines. The Day key
// ("2006-01-02") locks the feed for the calendar day so the upstream news
// API is hit at most once per day.
type NewsCache struct {
	Day       string `gorm:"primaryKey"`
	Articles  string `gorm:"not null"` // JSON-encoded []news.Article
	CreatedAt time.Time
}
