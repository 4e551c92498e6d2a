package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReferralStatusActive  = "active"
	ReferralStatusRevoked = "revoked"
)

// Referral maps a (supporter, pitch) pair to a shareable short code.
// One active referral per pair; revoked rows are kept so old codes stay resolvable.
type Referral struct {
	ID              string `gorm:"primaryKey;type:uuid" json:"id"`
	SupporterUserID string `gorm:"not null;uniqueIndex:idx_referrals_supporter_pitch" json:"supporter_user_id"` // ExternalUserID from the marketplace service
	PitchID         string `gorm:"index;not null;uniqueIndex:idx_referrals_supporter_pitch" json:"pitch_id"`

	Code   string `gorm:"uniqueIndex;not null;type:varchar(16)" json:"code"`
	Status string `gorm:"type:varchar(16);default:'active';check:status IN ('active','revoked')" json:"status"`

	RevokedAt *time.Time `json:"revoked_at,omitempty"`

	Timestamps
}

// ReferralWithContext is a Referral joined with the denormalized pitch/supporter
// mirror info needed for display. Not a table.
type ReferralWithContext struct {
	Referral
	PitchTitle    string `json:"pitch_title"`
	PitchSlug     string `json:"pitch_slug"`
	VeteranName   string `json:"veteran_name"`
	PitchPageURL  string `json:"pitch_page_url"`
	SupporterName string `json:"supporter_name"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
