package models

import "time"

// KeywordSuggestion: curated pitch keywords surfaced on the supporter dashboard.
// Rows are seeded by an offline process; the aggregator falls back to synthetic
// defaults when a pitch has none.
type KeywordSuggestion struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PitchID   string    `gorm:"index;not null" json:"pitch_id"`
	Keyword   string    `gorm:"not null" json:"keyword"`
	Score     float64   `gorm:"default:0" json:"score"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Nudge: a short call-to-action shown to supporters ("share on LinkedIn", etc.).
type Nudge struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	PitchID   string    `gorm:"index;not null" json:"pitch_id"`
	Message   string    `gorm:"not null" json:"message"`
	Platform  string    `gorm:"type:varchar(32)" json:"platform,omitempty"`
	Priority  int       `gorm:"default:0" json:"priority"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
