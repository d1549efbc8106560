package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"syndicate/stevedore/pkg/api/stevedore"
)

func TestGetPipelineStats_ReturnsSnapshot(t *testing.T) {
	mock, router := setupReadTest(t)
	now := time.Now()
	today := now.Truncate(24 * time.Hour)

	mock.ExpectQuery("SELECT metric_date, total_posts").
		WillReturnRows(sqlmock.NewRows([]string{
			"metric_date", "total_posts", "successful_posts", "failed_posts", "tier1_posts", "tier2_posts", "tier3_posts", "success_rate", "updated_at",
		}).AddRow(today, 10, 8, 2, 5, 3, 2, 80.0, now))
	mock.ExpectQuery("SELECT tier, total_slots").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "total_slots", "used_slots", "reserved_slots", "available_slots", "updated_at"}).
			AddRow("tier1", 150, 5, 50, 95, now).
			AddRow("tier2", -1, 3, 0, -1, now))
	mock.ExpectQuery("SELECT platform, tier").
		WillReturnRows(sqlmock.NewRows([]string{
			"platform", "tier", "management_tool", "status", "failure_count", "last_successful_post", "last_failed_post", "response_time_ms", "updated_at",
		}).AddRow("twitter", "tier1", "buffer", "healthy", 0, now, nil, 120, now))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp stevedore.StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Metrics == nil || resp.Metrics.TotalPosts != 10 {
		t.Fatalf("unexpected metrics: %+v", resp.Metrics)
	}
	if len(resp.Capacity) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(resp.Capacity))
	}
	if !resp.Capacity[1].Unlimited() {
		t.Fatal("expected tier2 to be unlimited")
	}
	if len(resp.Platforms) != 1 {
		t.Fatalf("expected 1 platform, got %d", len(resp.Platforms))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetPipelineStats_NoMetricsYetToday(t *testing.T) {
	mock, router := setupReadTest(t)

	mock.ExpectQuery("SELECT metric_date, total_posts").
		WillReturnRows(sqlmock.NewRows([]string{
			"metric_date", "total_posts", "successful_posts", "failed_posts", "tier1_posts", "tier2_posts", "tier3_posts", "success_rate", "updated_at",
		}))
	mock.ExpectQuery("SELECT tier, total_slots").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "total_slots", "used_slots", "reserved_slots", "available_slots", "updated_at"}))
	mock.ExpectQuery("SELECT platform, tier").
		WillReturnRows(sqlmock.NewRows([]string{
			"platform", "tier", "management_tool", "status", "failure_count", "last_successful_post", "last_failed_post", "response_time_ms", "updated_at",
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp stevedore.StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Metrics != nil {
		t.Fatalf("expected no metrics row, got %+v", resp.Metrics)
	}
	if len(resp.Capacity) != 0 || len(resp.Platforms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", resp)
	}
}
