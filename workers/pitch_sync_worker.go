// workers/pitch_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"pitch-referral-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemotePitch matches the JSON shape of the marketplace sync API.
type RemotePitch struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	VeteranName  string    `json:"veteran_name"`
	PitchPageURL string    `json:"pitch_page_url"`
	IsActive     bool      `json:"is_active"`
	Headline     *string   `json:"headline,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RemoteSupporter mirrors the marketplace user records that mint referral links.
type RemoteSupporter struct {
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetPitchChangesResponse is the top-level structure of the sync API response.
type GetPitchChangesResponse struct {
	Pitches    []RemotePitch     `json:"pitches"`
	Supporters []RemoteSupporter `json:"supporters"`
}

// PitchSyncWorker keeps the local pitch/supporter mirrors fresh by polling the
// marketplace service with an incremental `since` cursor. Mirrors are
// display-only; the marketplace owns the data.
type PitchSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/pitches"
	serviceToken string
	httpClient   *http.Client
}

func NewPitchSyncWorker(db *gorm.DB, marketplaceBaseURL, endpointPath, serviceToken string) *PitchSyncWorker {
	return &PitchSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      marketplaceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *PitchSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Pitch Sync Worker (marketplace → pitch/supporter mirrors)…")
	go w.run(ctx)
}

func (w *PitchSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial pitch sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Pitch sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Pitch Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local pitch mirror.
func (w *PitchSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM pitch_mirrors").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches pitch/supporter changes and upserts them into the mirrors.
func (w *PitchSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)
	log.Printf("[SYNC] 📡 Fetching pitch changes from marketplace since=%s", sinceStr)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid marketplace base URL '%s': %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to marketplace sync API failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("marketplace sync API non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetPitchChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode marketplace sync response: %w", err)
	}

	if len(response.Pitches) == 0 && len(response.Supporters) == 0 {
		log.Printf("[SYNC] ✅ No pitch/supporter changes since %s", sinceStr)
		return nil
	}

	var upsertCount, errorCount int

	for _, remote := range response.Pitches {
		mirror := models.PitchMirror{
			ID:              uuid.NewString(),
			ExternalPitchID: remote.ID,
			Title:           remote.Title,
			Slug:            slug.Make(remote.Title),
			VeteranName:     remote.VeteranName,
			PitchPageURL:    remote.PitchPageURL,
			IsActive:        remote.IsActive,
			Headline:        remote.Headline,
			CreatedAt:       remote.CreatedAt,
			UpdatedAt:       remote.UpdatedAt,
		}
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_pitch_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "slug", "veteran_name", "pitch_page_url",
				"is_active", "headline", "created_at", "updated_at",
			}),
		}).Create(&mirror).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert pitch mirror (external_id=%q): %v", remote.ID, err)
		} else {
			upsertCount++
		}
	}

	for _, remote := range response.Supporters {
		mirror := models.SupporterMirror{
			ID:             uuid.NewString(),
			ExternalUserID: remote.ExternalID,
			DisplayName:    remote.DisplayName,
			Email:          remote.Email,
			CreatedAt:      remote.CreatedAt,
			UpdatedAt:      remote.UpdatedAt,
		}
		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "email", "created_at", "updated_at",
			}),
		}).Create(&mirror).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert supporter mirror (external_id=%q): %v", remote.ExternalID, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d pitch(es) + %d supporter(s) (%d upserted, %d errors)",
		len(response.Pitches), len(response.Supporters), upsertCount, errorCount)

	return nil
}
