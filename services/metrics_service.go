package services

import (
	"log"
	"os"
	"strconv"

	"pitch-referral-system/models"

	"gorm.io/gorm"
)

// OutcomeValues define estimated dollar value per outcome event (tunable via env).
// These are configuration, not derived from the event log.
type OutcomeValues struct {
	CallUSD   float64
	EmailUSD  float64
	ResumeUSD float64
	SignupUSD float64
}

var DefaultOutcomeValues = OutcomeValues{
	CallUSD:   50,
	EmailUSD:  25,
	ResumeUSD: 100,
	SignupUSD: 500,
}

func loadOutcomeValues() OutcomeValues {
	vals := DefaultOutcomeValues
	override := func(key string, dst *float64) {
		if raw := os.Getenv(key); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				*dst = v
			} else {
				log.Printf("⚠️  Ignoring invalid %s=%q", key, raw)
			}
		}
	}
	override("OUTCOME_VALUE_CALL_USD", &vals.CallUSD)
	override("OUTCOME_VALUE_EMAIL_USD", &vals.EmailUSD)
	override("OUTCOME_VALUE_RESUME_USD", &vals.ResumeUSD)
	override("OUTCOME_VALUE_SIGNUP_USD", &vals.SignupUSD)
	return vals
}

type MetricsService struct {
	DB     *gorm.DB
	Values OutcomeValues
}

func NewMetricsService(db *gorm.DB) *MetricsService {
	return &MetricsService{DB: db, Values: loadOutcomeValues()}
}

// KPIReport is the headline rollup for a pitch's referral funnel.
// Always recomputed from the event log — nothing here is stored.
type KPIReport struct {
	TotalReferrals     int64   `json:"total_referrals"`
	TotalOpens         int64   `json:"total_opens"`
	TotalCalls         int64   `json:"total_calls"`
	TotalEmails        int64   `json:"total_emails"`
	TotalResumes       int64   `json:"total_resume_requests"`
	TotalValueUSD      float64 `json:"total_value_usd"`
	ConversionRate     float64 `json:"conversion_rate"`
	AvgValuePerOutcome float64 `json:"avg_value_per_outcome"`
}

// ChannelReport is one per-platform row of the channel breakdown.
type ChannelReport struct {
	Platform       string  `json:"platform"`
	Shares         int64   `json:"shares"`
	Opens          int64   `json:"opens"`
	ConversionRate float64 `json:"conversion_rate"`
	ValueUSD       float64 `json:"value_usd"`
}

type eventTypeCount struct {
	EventType string
	Count     int64
}

// GetKPIs scans the pitch's referrals and their events and derives the
// headline numbers. Divide-by-zero guards return 0, never NaN.
func (s *MetricsService) GetKPIs(pitchID string) (*KPIReport, error) {
	var totalReferrals int64
	if err := s.DB.Model(&models.Referral{}).
		Where("pitch_id = ?", pitchID).
		Count(&totalReferrals).Error; err != nil {
		return nil, err
	}

	var counts []eventTypeCount
	if err := s.DB.Raw(`
		SELECT e.event_type, COUNT(*) AS count
		FROM referral_events e
		INNER JOIN referrals r ON r.id = e.referral_id
		WHERE r.pitch_id = ?
		GROUP BY e.event_type
	`, pitchID).Scan(&counts).Error; err != nil {
		return nil, err
	}

	byType := map[string]int64{}
	for _, c := range counts {
		byType[c.EventType] = c.Count
	}

	report := &KPIReport{
		TotalReferrals: totalReferrals,
		TotalOpens:     byType[models.EventLinkOpened],
		TotalCalls:     byType[models.EventCallClicked],
		TotalEmails:    byType[models.EventEmailClicked],
		TotalResumes:   byType[models.EventResumeRequested],
	}

	report.TotalValueUSD = s.valueOf(byType)
	outcomes := report.TotalOpens + report.TotalCalls + report.TotalEmails + report.TotalResumes
	report.ConversionRate = ratio(outcomes, totalReferrals)

	paidOutcomes := byType[models.EventCallClicked] + byType[models.EventEmailClicked] +
		byType[models.EventResumeRequested] + byType[models.EventSignupCompleted]
	if paidOutcomes > 0 {
		report.AvgValuePerOutcome = report.TotalValueUSD / float64(paidOutcomes)
	}

	return report, nil
}

// GetChannelPerformance groups the pitch's events by platform. Shares is the
// total event count for the channel; opens counts LINK_OPENED specifically.
func (s *MetricsService) GetChannelPerformance(pitchID string) ([]ChannelReport, error) {
	type channelRow struct {
		Platform string
		Total    int64
		Opens    int64
		Calls    int64
		Emails   int64
		Resumes  int64
		Signups  int64
	}

	var rows []channelRow
	if err := s.DB.Raw(`
		SELECT
			e.platform AS platform,
			COUNT(*) AS total,
			COUNT(CASE WHEN e.event_type = 'LINK_OPENED' THEN 1 END) AS opens,
			COUNT(CASE WHEN e.event_type = 'CALL_CLICKED' THEN 1 END) AS calls,
			COUNT(CASE WHEN e.event_type = 'EMAIL_CLICKED' THEN 1 END) AS emails,
			COUNT(CASE WHEN e.event_type = 'RESUME_REQUESTED' THEN 1 END) AS resumes,
			COUNT(CASE WHEN e.event_type = 'SIGNUP_COMPLETED' THEN 1 END) AS signups
		FROM referral_events e
		INNER JOIN referrals r ON r.id = e.referral_id
		WHERE r.pitch_id = ?
		GROUP BY e.platform
		ORDER BY total DESC
	`, pitchID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	reports := make([]ChannelReport, 0, len(rows))
	for _, row := range rows {
		outcomes := row.Opens + row.Calls + row.Emails + row.Resumes
		value := float64(row.Calls)*s.Values.CallUSD +
			float64(row.Emails)*s.Values.EmailUSD +
			float64(row.Resumes)*s.Values.ResumeUSD +
			float64(row.Signups)*s.Values.SignupUSD
		reports = append(reports, ChannelReport{
			Platform:       row.Platform,
			Shares:         row.Total,
			Opens:          row.Opens,
			ConversionRate: ratio(outcomes, row.Total),
			ValueUSD:       value,
		})
	}
	return reports, nil
}

// GetKeywordSuggestions returns curated keywords for a pitch, falling back to
// generic defaults when none are seeded. Presentation heuristic only.
func (s *MetricsService) GetKeywordSuggestions(pitchID string) ([]models.KeywordSuggestion, error) {
	var suggestions []models.KeywordSuggestion
	err := s.DB.Where("pitch_id = ?", pitchID).
		Order("score DESC").
		Limit(10).
		Find(&suggestions).Error
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		suggestions = defaultKeywordSuggestions(pitchID)
	}
	return suggestions, nil
}

// GetNudges returns share prompts for a pitch, synthesizing defaults when the
// table has no rows.
func (s *MetricsService) GetNudges(pitchID string) ([]models.Nudge, error) {
	var nudges []models.Nudge
	err := s.DB.Where("pitch_id = ?", pitchID).
		Order("priority DESC").
		Limit(5).
		Find(&nudges).Error
	if err != nil {
		return nil, err
	}
	if len(nudges) == 0 {
		nudges = defaultNudges(pitchID)
	}
	return nudges, nil
}

func (s *MetricsService) valueOf(byType map[string]int64) float64 {
	return float64(byType[models.EventCallClicked])*s.Values.CallUSD +
		float64(byType[models.EventEmailClicked])*s.Values.EmailUSD +
		float64(byType[models.EventResumeRequested])*s.Values.ResumeUSD +
		float64(byType[models.EventSignupCompleted])*s.Values.SignupUSD
}

func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func defaultKeywordSuggestions(pitchID string) []models.KeywordSuggestion {
	words := []string{"leadership", "logistics", "operations", "discipline", "team building"}
	suggestions := make([]models.KeywordSuggestion, 0, len(words))
	for i, w := range words {
		suggestions = append(suggestions, models.KeywordSuggestion{
			PitchID: pitchID,
			Keyword: w,
			Score:   float64(len(words) - i),
		})
	}
	return suggestions
}

func defaultNudges(pitchID string) []models.Nudge {
	return []models.Nudge{
		{PitchID: pitchID, Message: "Share this pitch with your LinkedIn network", Platform: models.PlatformLinkedIn, Priority: 3},
		{PitchID: pitchID, Message: "Forward this pitch to a hiring manager you know", Platform: models.PlatformEmail, Priority: 2},
		{PitchID: pitchID, Message: "Send this pitch to a WhatsApp group that hires", Platform: models.PlatformWhatsApp, Priority: 1},
	}
}
