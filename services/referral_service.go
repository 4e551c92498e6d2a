package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pitch-referral-system/models"
	"pitch-referral-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrReferralRevoked: the (supporter, pitch) pair already has a revoked
	// referral; a new link cannot be minted for the pair.
	ErrReferralRevoked = errors.New("referral for this pair has been revoked")

	// ErrCodeExhausted: could not find a free code within the retry budget.
	ErrCodeExhausted = errors.New("could not allocate a unique referral code")
)

const codeInsertRetries = 3

type ReferralService struct {
	DB          *gorm.DB
	SiteBaseURL string
}

func NewReferralService(db *gorm.DB) *ReferralService {
	base := os.Getenv("SITE_BASE_URL")
	if base == "" {
		base = "http://localhost:3000"
		log.Println("⚠️  SITE_BASE_URL not set, using default: http://localhost:3000")
	}
	return &ReferralService{DB: db, SiteBaseURL: strings.TrimRight(base, "/")}
}

// CreateOrGetReferral returns the share link for a (supporter, pitch) pair,
// minting a referral lazily on first request. The insert is a conditional
// upsert on the pair's unique index, so concurrent first requests converge on
// a single row instead of racing a select-then-insert.
func (s *ReferralService) CreateOrGetReferral(supporterID, pitchID string) (*models.Referral, string, error) {
	var referral models.Referral

	for attempt := 0; attempt < codeInsertRetries; attempt++ {
		candidate := models.Referral{
			ID:              uuid.NewString(),
			SupporterUserID: supporterID,
			PitchID:         pitchID,
			Code:            utils.GenerateCode(),
			Status:          models.ReferralStatusActive,
		}

		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supporter_user_id"}, {Name: "pitch_id"}},
			DoNothing: true,
		}).Create(&candidate)
		if res.Error != nil {
			// A code collision hits the referrals.code unique index, not the
			// pair index, so it surfaces as an error. Retry with a fresh code.
			if isUniqueViolation(res.Error) {
				log.Printf("⚠️  Referral code collision on attempt %d, regenerating", attempt+1)
				continue
			}
			return nil, "", res.Error
		}

		// Either our row or the pre-existing one for the pair.
		if err := s.DB.Where("supporter_user_id = ? AND pitch_id = ?", supporterID, pitchID).
			First(&referral).Error; err != nil {
			return nil, "", err
		}

		if referral.Status != models.ReferralStatusActive {
			return nil, "", ErrReferralRevoked
		}

		return &referral, s.BuildShareLink(&referral), nil
	}

	return nil, "", ErrCodeExhausted
}

// BuildShareLink renders the public open-tracking URL for a referral,
// including a readable pitch slug when the mirror has one.
func (s *ReferralService) BuildShareLink(r *models.Referral) string {
	link := fmt.Sprintf("%s/refer/opened?code=%s", s.SiteBaseURL, r.Code)

	var pitch models.PitchMirror
	if err := s.DB.Where("external_pitch_id = ?", r.PitchID).First(&pitch).Error; err == nil {
		pitchSlug := pitch.Slug
		if pitchSlug == "" && pitch.Title != "" {
			pitchSlug = slug.Make(pitch.Title)
		}
		if pitchSlug != "" {
			link = fmt.Sprintf("%s/refer/opened?code=%s&p=%s", s.SiteBaseURL, r.Code, pitchSlug)
		}
	}
	return link
}

// GetReferralByCode resolves an active referral by code with display context.
// Returns (nil, false, nil) when the code is unknown or the referral is
// revoked — not-found is a signal, not an error.
func (s *ReferralService) GetReferralByCode(code string) (*models.ReferralWithContext, bool, error) {
	var referral models.Referral
	err := s.DB.Where("code = ? AND status = ?", code, models.ReferralStatusActive).
		First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	ctx := &models.ReferralWithContext{Referral: referral}

	var pitch models.PitchMirror
	if err := s.DB.Where("external_pitch_id = ?", referral.PitchID).First(&pitch).Error; err == nil {
		ctx.PitchTitle = pitch.Title
		ctx.PitchSlug = pitch.Slug
		ctx.VeteranName = pitch.VeteranName
		ctx.PitchPageURL = pitch.PitchPageURL
	}

	var supporter models.SupporterMirror
	if err := s.DB.Where("external_user_id = ?", referral.SupporterUserID).First(&supporter).Error; err == nil {
		ctx.SupporterName = supporter.DisplayName
	}

	return ctx, true, nil
}

// GetReferralsBySupporter lists a supporter's referrals, newest first.
func (s *ReferralService) GetReferralsBySupporter(supporterID string) ([]models.Referral, error) {
	var referrals []models.Referral
	err := s.DB.Where("supporter_user_id = ?", supporterID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, err
}

// RevokeReferral transitions a referral to revoked. The row is kept — codes
// must stay unique across all referrals regardless of status.
func (s *ReferralService) RevokeReferral(referralID string) error {
	now := time.Now()
	res := s.DB.Model(&models.Referral{}).
		Where("id = ? AND status = ?", referralID, models.ReferralStatusActive).
		Updates(map[string]interface{}{
			"status":     models.ReferralStatusRevoked,
			"revoked_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// isUniqueViolation matches unique-index errors across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
