package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"syndicate/stevedore/pkg/api/stevedore"
	"syndicate/stevedore/pkg/logging"
)

func setupReadTest(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	Init(db, logging.NewLogger(), nil, nil)

	router := gin.New()
	router.GET("/api/alerts", GetAlerts)
	router.PUT("/api/alerts/:id/read", MarkAlertRead)
	router.GET("/api/content", GetContentItems)
	router.GET("/api/content/:id", GetContentItem)
	router.GET("/api/stats", GetPipelineStats)
	return mock, router
}

func TestGetAlerts_FiltersBySeverity(t *testing.T) {
	mock, router := setupReadTest(t)
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("critical").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, severity, category, message").
		WithArgs("critical", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "severity", "category", "message", "details", "related_platform", "related_content_id", "is_read", "created_at",
		}).AddRow("alert-1", "critical", "capacity_warning", "Capacity critically low for tier tier1: 8 slots remaining", nil, nil, nil, false, now))

	req := httptest.NewRequest(http.MethodGet, "/api/alerts?severity=critical", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp stevedore.AlertListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Alerts) != 1 {
		t.Fatalf("unexpected alert list: %+v", resp)
	}
	if resp.Alerts[0].Severity != "critical" {
		t.Fatalf("unexpected severity %q", resp.Alerts[0].Severity)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkAlertRead(t *testing.T) {
	mock, router := setupReadTest(t)

	mock.ExpectExec("UPDATE alerts SET is_read").
		WithArgs("alert-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPut, "/api/alerts/alert-1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMarkAlertRead_NotFound(t *testing.T) {
	mock, router := setupReadTest(t)

	mock.ExpectExec("UPDATE alerts SET is_read").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodPut, "/api/alerts/missing/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMarkAlertRead_RowsAffectedError(t *testing.T) {
	mock, router := setupReadTest(t)

	mock.ExpectExec("UPDATE alerts SET is_read").
		WithArgs("alert-1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows affected")))

	req := httptest.NewRequest(http.MethodPut, "/api/alerts/alert-1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
