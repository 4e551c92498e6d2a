// services/report_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"pitch-referral-system/models"
	"pitch-referral-system/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

type ReportService struct {
	DB      *gorm.DB
	Metrics *MetricsService
}

func NewReportService(db *gorm.DB, metrics *MetricsService) *ReportService {
	return &ReportService{DB: db, Metrics: metrics}
}

// StartReportScheduler uploads a daily CSV rollup of every pitch's referral
// KPIs to R2. Best-effort: a failed run logs and waits for the next tick.
func (s *ReportService) StartReportScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(2, 0, 0))),
		gocron.NewTask(func() {
			url, err := s.UploadDailyReport(time.Now())
			if err != nil {
				log.Printf("[Reports] Daily referral report failed: %v", err)
				return
			}
			log.Printf("✅ Daily referral report uploaded: %s", url)
		}),
	)
}

// BuildDailyReportCSV renders one KPI row per pitch that has referrals.
func (s *ReportService) BuildDailyReportCSV() ([]byte, error) {
	var pitchIDs []string
	if err := s.DB.Model(&models.Referral{}).
		Distinct("pitch_id").
		Pluck("pitch_id", &pitchIDs).Error; err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"pitch_id", "total_referrals", "total_opens", "total_calls",
		"total_emails", "total_resume_requests", "conversion_rate", "total_value_usd",
	})

	for _, pitchID := range pitchIDs {
		kpis, err := s.Metrics.GetKPIs(pitchID)
		if err != nil {
			log.Printf("[Reports] Skipping pitch %s: %v", pitchID, err)
			continue
		}
		_ = w.Write([]string{
			pitchID,
			strconv.FormatInt(kpis.TotalReferrals, 10),
			strconv.FormatInt(kpis.TotalOpens, 10),
			strconv.FormatInt(kpis.TotalCalls, 10),
			strconv.FormatInt(kpis.TotalEmails, 10),
			strconv.FormatInt(kpis.TotalResumes, 10),
			strconv.FormatFloat(kpis.ConversionRate, 'f', 4, 64),
			strconv.FormatFloat(kpis.TotalValueUSD, 'f', 2, 64),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadDailyReport builds the CSV and pushes it to R2 under a dated key.
func (s *ReportService) UploadDailyReport(day time.Time) (string, error) {
	data, err := s.BuildDailyReportCSV()
	if err != nil {
		return "", fmt.Errorf("failed to build report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/referral-kpis.csv", day.Format("2006-01-02"))
	return utils.UploadBytesToR2(data, key, "text/csv")
}
