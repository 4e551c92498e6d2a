package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"pitch-referral-system/models"
	"pitch-referral-system/services"

	"github.com/gofiber/fiber/v2"
)

func TestCreateLinkRequiresUserContext(t *testing.T) {
	env := setupTestApp(t)

	payload, _ := json.Marshal(map[string]string{"pitch_id": "pitch-1"})
	req := httptest.NewRequest("POST", "/s/referrals/link", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without X-User-ID, got %d", resp.StatusCode)
	}
}

func TestCreateLinkReturnsReusableLink(t *testing.T) {
	env := setupTestApp(t)

	mint := func() (string, string) {
		payload, _ := json.Marshal(map[string]string{"pitch_id": "pitch-1"})
		req := httptest.NewRequest("POST", "/s/referrals/link", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "supporter-1")

		resp, err := env.app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Code string `json:"code"`
			Link string `json:"link"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return body.Code, body.Link
	}

	code1, link1 := mint()
	code2, link2 := mint()

	if code1 == "" || link1 == "" {
		t.Fatalf("expected code and link in response")
	}
	if code1 != code2 || link1 != link2 {
		t.Errorf("repeat mint must reuse the referral: got (%q,%q) then (%q,%q)", code1, link1, code2, link2)
	}

	var count int64
	env.db.Model(&models.Referral{}).Count(&count)
	if count != 1 {
		t.Errorf("expected one referral row, got %d", count)
	}
}

func TestCreateLinkValidation(t *testing.T) {
	env := setupTestApp(t)

	payload, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest("POST", "/s/referrals/link", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "supporter-1")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400 without pitch_id, got %d", resp.StatusCode)
	}
}

func TestGetReferralByCodeNotFoundHTTP(t *testing.T) {
	env := setupTestApp(t)

	req := httptest.NewRequest("GET", "/s/referrals/doesnotexist", nil)
	req.Header.Set("X-User-ID", "supporter-1")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("expected 404 for unknown code, got %d", resp.StatusCode)
	}
}

func TestReferralFeedbackFlow(t *testing.T) {
	env := setupTestApp(t)
	ref, _, err := env.referralSvc.CreateOrGetReferral("supporter-1", "pitch-1")
	if err != nil {
		t.Fatalf("failed to seed referral: %v", err)
	}
	if _, err := env.eventSvc.RecordEvent(services.RecordEventInput{
		ReferralID: ref.ID,
		EventType:  models.EventLinkOpened,
		Platform:   models.PlatformLinkedIn,
	}); err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"feedback": "positive",
		"comment":  "great fit",
	})
	req := httptest.NewRequest("POST", "/s/referrals/"+ref.ID+"/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "supporter-1")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var event models.ReferralEvent
	env.db.First(&event, "referral_id = ?", ref.ID)
	if event.Feedback == nil || *event.Feedback != "positive" {
		t.Errorf("expected feedback recorded, got %v", event.Feedback)
	}
}

func TestKPIEndpointDegradesToZeros(t *testing.T) {
	env := setupTestApp(t)

	req := httptest.NewRequest("GET", "/s/pitches/pitch-without-data/kpis", nil)
	req.Header.Set("X-User-ID", "supporter-1")

	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("dashboards get zeros, never errors: got %d", resp.StatusCode)
	}

	var body services.KPIReport
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.TotalReferrals != 0 || body.ConversionRate != 0 {
		t.Errorf("expected zero report, got %+v", body)
	}
}
