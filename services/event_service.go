package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"pitch-referral-system/models"
	"pitch-referral-system/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound    = errors.New("no matching event found")
	ErrUnknownEventType = errors.New("unrecognized event type")
	ErrMissingReferral  = errors.New("referral_id is required")
)

type EventService struct {
	DB *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// RecordEventInput carries one tracked interaction. IPAddress is the raw
// client address; it is hashed before it ever touches storage.
type RecordEventInput struct {
	ReferralID string
	EventType  string
	Platform   string
	UserAgent  string
	IPAddress  string
	Metadata   map[string]interface{}
	OccurredAt time.Time
}

// RecordEvent appends exactly one event row. Validation happens before any
// write; a bad referral_id surfaces as a foreign-key storage error. No other
// table is touched here — pitch counters and the like have their own write
// paths and are not updated atomically with the event.
func (s *EventService) RecordEvent(in RecordEventInput) (*models.ReferralEvent, error) {
	if in.ReferralID == "" {
		return nil, ErrMissingReferral
	}
	if !models.KnownEventTypes[in.EventType] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, in.EventType)
	}

	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	event := models.ReferralEvent{
		ID:         uuid.NewString(),
		ReferralID: in.ReferralID,
		EventType:  in.EventType,
		Platform:   in.Platform,
		UserAgent:  in.UserAgent,
		IPHash:     utils.HashIP(in.IPAddress),
		Metadata:   datatypes.JSONMap(in.Metadata),
		OccurredAt: occurred,
	}

	if err := s.DB.Create(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// RecordEventAsync is the fire-and-forget variant used by the tracking
// endpoints: the write must never delay the user action it accompanies
// (a call, an email, a redirect). Failures are logged and dropped.
func (s *EventService) RecordEventAsync(in RecordEventInput) {
	go func() {
		if _, err := s.RecordEvent(in); err != nil {
			log.Printf("⚠️  Best-effort event write failed (referral=%s, type=%s): %v",
				in.ReferralID, in.EventType, err)
		}
	}()
}

// EventsByReferral returns the referral's events ordered by occurred_at.
// OccurredAt is client-supplied and clock-skewed clients can store events out
// of wall-clock order, so this ordering is for display, not causality.
func (s *EventService) EventsByReferral(referralID string) ([]models.ReferralEvent, error) {
	var events []models.ReferralEvent
	err := s.DB.Where("referral_id = ?", referralID).
		Order("occurred_at ASC").
		Find(&events).Error
	return events, err
}

// UpdateEventFeedback sets the three feedback fields on a specific event.
// It is a targeted overwrite — re-invocation replaces prior feedback, no
// history is kept. Core event facts are never touched.
func (s *EventService) UpdateEventFeedback(eventID, feedback, comment string) error {
	now := time.Now()
	res := s.DB.Model(&models.ReferralEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"feedback":         feedback,
			"feedback_comment": comment,
			"feedback_at":      &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// UpdateReferralFeedback annotates the most recent event of the given type
// for a referral (e.g., the LINK_OPENED event). Returns ErrEventNotFound when
// the referral has no such event.
func (s *EventService) UpdateReferralFeedback(referralID, eventType, feedback, comment string) error {
	if !models.KnownEventTypes[eventType] {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	var event models.ReferralEvent
	err := s.DB.Where("referral_id = ? AND event_type = ?", referralID, eventType).
		Order("occurred_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	return s.UpdateEventFeedback(event.ID, feedback, comment)
}
