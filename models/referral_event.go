package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventLinkOpened      = "LINK_OPENED"
	EventCallClicked     = "CALL_CLICKED"
	EventEmailClicked    = "EMAIL_CLICKED"
	EventShareReshared   = "SHARE_RESHARED"
	EventPitchViewed     = "PITCH_VIEWED"
	EventResumeRequested = "RESUME_REQUESTED"
	EventSignupCompleted = "SIGNUP_COMPLETED"
)

// KnownEventTypes is the closed set accepted by the tracking endpoint.
var KnownEventTypes = map[string]bool{
	EventLinkOpened:      true,
	EventCallClicked:     true,
	EventEmailClicked:    true,
	EventShareReshared:   true,
	EventPitchViewed:     true,
	EventResumeRequested: true,
	EventSignupCompleted: true,
}

const (
	PlatformWhatsApp = "whatsapp"
	PlatformLinkedIn = "linkedin"
	PlatformEmail    = "email"
	PlatformWeb      = "web"
	PlatformTwitter  = "twitter"
	PlatformFacebook = "facebook"
	PlatformCopy     = "copy"
)

// ReferralEvent is one tracked interaction attributed to a referral.
// Rows are append-only: after insert, only the three Feedback* fields may change,
// and only via the feedback update path.
type ReferralEvent struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	ReferralID string    `gorm:"index;not null" json:"referral_id"`
	Referral   *Referral `gorm:"foreignKey:ReferralID" json:"-"`

	EventType string `gorm:"index;not null;type:varchar(32)" json:"event_type"`
	Platform  string `gorm:"index;type:varchar(32)" json:"platform"` // whatsapp | linkedin | email | web | ...
	UserAgent string `gorm:"type:text" json:"user_agent,omitempty"`

	// Hashed client address. Raw IPs are never persisted.
	IPHash string `gorm:"type:varchar(64)" json:"ip_hash,omitempty"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Client-supplied event time; CreatedAt is the row insert time. Clock skew
	// means OccurredAt is advisory ordering only.
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`

	Feedback        *string    `gorm:"type:varchar(32)" json:"feedback,omitempty"`
	FeedbackComment *string    `gorm:"type:text" json:"feedback_comment,omitempty"`
	FeedbackAt      *time.Time `json:"feedback_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
