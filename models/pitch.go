package models

import "time"

// PitchMirror is a local snapshot of pitch data needed for link construction and
// referral display. Owned solely by this service, populated by the sync worker
// from the marketplace service's pitch table.
type PitchMirror struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalPitchID string  `gorm:"uniqueIndex;not null" json:"external_pitch_id"`
	Title           string  `gorm:"not null" json:"title"`
	Slug            string  `gorm:"index" json:"slug"`
	VeteranName     string  `json:"veteran_name"`
	PitchPageURL    string  `gorm:"type:text" json:"pitch_page_url"`
	IsActive        bool    `gorm:"default:true" json:"is_active"`
	Headline        *string `json:"headline,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// SupporterMirror is a local snapshot of the supporters who mint referral links.
// Display-only; identity lives in the marketplace service.
type SupporterMirror struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
