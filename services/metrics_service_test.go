package services

import (
	"fmt"
	"testing"

	"pitch-referral-system/models"
)

func seedEvents(t *testing.T, evtSvc *EventService, referralID, eventType, platform string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := evtSvc.RecordEvent(RecordEventInput{
			ReferralID: referralID,
			EventType:  eventType,
			Platform:   platform,
		}); err != nil {
			t.Fatalf("failed to seed %s event: %v", eventType, err)
		}
	}
}

func TestConversionMath(t *testing.T) {
	db := setupTestDB(t)
	refSvc := NewReferralService(db)
	evtSvc := NewEventService(db)
	metrics := NewMetricsService(db)
	metrics.Values = DefaultOutcomeValues

	// 10 referrals for the pitch, events against the first one.
	var first *models.Referral
	for i := 0; i < 10; i++ {
		ref := seedReferral(t, refSvc, fmt.Sprintf("supporter-%d", i), "pitch-1")
		if first == nil {
			first = ref
		}
	}
	seedEvents(t, evtSvc, first.ID, models.EventLinkOpened, models.PlatformWeb, 4)
	seedEvents(t, evtSvc, first.ID, models.EventCallClicked, models.PlatformWeb, 2)

	kpis, err := metrics.GetKPIs("pitch-1")
	if err != nil {
		t.Fatalf("kpi query failed: %v", err)
	}

	if kpis.TotalReferrals != 10 {
		t.Errorf("total referrals: want 10, got %d", kpis.TotalReferrals)
	}
	if kpis.TotalOpens != 4 {
		t.Errorf("total opens: want 4, got %d", kpis.TotalOpens)
	}
	if kpis.TotalCalls != 2 {
		t.Errorf("total calls: want 2, got %d", kpis.TotalCalls)
	}
	// (opens + calls) / referrals = (4+2)/10
	if kpis.ConversionRate != 0.6 {
		t.Errorf("conversion rate: want 0.6, got %v", kpis.ConversionRate)
	}
	wantValue := 2 * DefaultOutcomeValues.CallUSD
	if kpis.TotalValueUSD != wantValue {
		t.Errorf("total value: want %v, got %v", wantValue, kpis.TotalValueUSD)
	}
	if kpis.AvgValuePerOutcome != wantValue/2 {
		t.Errorf("avg value per outcome: want %v, got %v", wantValue/2, kpis.AvgValuePerOutcome)
	}
}

func TestConversionRateZeroReferrals(t *testing.T) {
	db := setupTestDB(t)
	metrics := NewMetricsService(db)

	kpis, err := metrics.GetKPIs("pitch-with-no-referrals")
	if err != nil {
		t.Fatalf("kpi query failed: %v", err)
	}
	// Guarded divide: 0, not NaN and not an error.
	if kpis.ConversionRate != 0 {
		t.Errorf("conversion rate with zero referrals: want 0, got %v", kpis.ConversionRate)
	}
	if kpis.TotalReferrals != 0 || kpis.TotalValueUSD != 0 {
		t.Errorf("expected all-zero report, got %+v", kpis)
	}
}

func TestChannelGrouping(t *testing.T) {
	db := setupTestDB(t)
	refSvc := NewReferralService(db)
	evtSvc := NewEventService(db)
	metrics := NewMetricsService(db)

	ref := seedReferral(t, refSvc, "supporter-1", "pitch-1")
	seedEvents(t, evtSvc, ref.ID, models.EventShareReshared, models.PlatformWhatsApp, 3)
	seedEvents(t, evtSvc, ref.ID, models.EventShareReshared, models.PlatformLinkedIn, 2)

	channels, err := metrics.GetChannelPerformance("pitch-1")
	if err != nil {
		t.Fatalf("channel query failed: %v", err)
	}

	byPlatform := map[string]ChannelReport{}
	for _, ch := range channels {
		byPlatform[ch.Platform] = ch
	}

	if got := byPlatform[models.PlatformWhatsApp].Shares; got != 3 {
		t.Errorf("whatsapp shares: want 3, got %d", got)
	}
	if got := byPlatform[models.PlatformLinkedIn].Shares; got != 2 {
		t.Errorf("linkedin shares: want 2, got %d", got)
	}
	if len(channels) != 2 {
		t.Errorf("expected 2 channel rows, got %d", len(channels))
	}
}

func TestChannelGroupingScopedToPitch(t *testing.T) {
	db := setupTestDB(t)
	refSvc := NewReferralService(db)
	evtSvc := NewEventService(db)
	metrics := NewMetricsService(db)

	mine := seedReferral(t, refSvc, "supporter-1", "pitch-1")
	other := seedReferral(t, refSvc, "supporter-2", "pitch-2")
	seedEvents(t, evtSvc, mine.ID, models.EventLinkOpened, models.PlatformWhatsApp, 1)
	seedEvents(t, evtSvc, other.ID, models.EventLinkOpened, models.PlatformWhatsApp, 5)

	channels, err := metrics.GetChannelPerformance("pitch-1")
	if err != nil {
		t.Fatalf("channel query failed: %v", err)
	}
	if len(channels) != 1 || channels[0].Shares != 1 {
		t.Errorf("expected only pitch-1's single event, got %+v", channels)
	}
}

func TestSuggestionFallbacks(t *testing.T) {
	db := setupTestDB(t)
	metrics := NewMetricsService(db)

	suggestions, err := metrics.GetKeywordSuggestions("pitch-unseeded")
	if err != nil {
		t.Fatalf("suggestion query failed: %v", err)
	}
	if len(suggestions) == 0 {
		t.Errorf("expected synthetic default suggestions for unseeded pitch")
	}

	nudges, err := metrics.GetNudges("pitch-unseeded")
	if err != nil {
		t.Fatalf("nudge query failed: %v", err)
	}
	if len(nudges) == 0 {
		t.Errorf("expected synthetic default nudges for unseeded pitch")
	}

	// Seeded rows win over fallbacks.
	db.Create(&models.KeywordSuggestion{ID: "ks-1", PitchID: "pitch-seeded", Keyword: "supply chain", Score: 9})
	seeded, err := metrics.GetKeywordSuggestions("pitch-seeded")
	if err != nil {
		t.Fatalf("seeded suggestion query failed: %v", err)
	}
	if len(seeded) != 1 || seeded[0].Keyword != "supply chain" {
		t.Errorf("expected the seeded keyword row, got %+v", seeded)
	}
}
