package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"syndicate/stevedore/pkg/logging"
	"syndicate/stevedore/pkg/models"
)

func TestGetOrCreateContentItem_CreatesOnFirstSight(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	now := time.Now()
	mock.ExpectExec("INSERT INTO content_items").
		WithArgs("content-1", "My Post", "article", "tier1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, title, content_type, tier").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "content_type", "tier", "platforms_targeted", "platforms_completed", "status", "created_at", "updated_at", "completed_at",
		}).AddRow("content-1", "My Post", "article", "tier1", 3, 0, "pending", now, now, nil))

	item, err := getOrCreateContentItem(context.Background(), db, "content-1", "My Post", "article", "tier1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "content-1" || item.Status != models.ContentStatusPending {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.PlatformsTargeted != 3 {
		t.Fatalf("expected platforms_targeted 3, got %d", item.PlatformsTargeted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetOrCreateContentItem_ConflictObservesExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	now := time.Now()
	// ON CONFLICT DO NOTHING: zero rows affected, the select sees the winner.
	mock.ExpectExec("INSERT INTO content_items").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id, title, content_type, tier").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "content_type", "tier", "platforms_targeted", "platforms_completed", "status", "created_at", "updated_at", "completed_at",
		}).AddRow("content-1", "Original Title", "article", "tier1", 5, 2, "in_progress", now, now, nil))

	item, err := getOrCreateContentItem(context.Background(), db, "content-1", "Different Title", "article", "tier1", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title != "Original Title" {
		t.Fatalf("expected existing row to win, got title %q", item.Title)
	}
	if item.PlatformsTargeted != 5 {
		t.Fatalf("expected existing targeted 5, got %d", item.PlatformsTargeted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordContentSuccess_FirstSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{"platforms_completed", "platforms_targeted", "status"}).
			AddRow(1, 3, "in_progress"))

	out, err := recordContentSuccess(context.Background(), db, "content-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.FirstSuccess {
		t.Fatal("expected first success")
	}
	if out.JustCompleted {
		t.Fatal("did not expect completion at 1/3")
	}
}

func TestRecordContentSuccess_ReachesTarget(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{"platforms_completed", "platforms_targeted", "status"}).
			AddRow(3, 3, "completed"))

	out, err := recordContentSuccess(context.Background(), db, "content-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.FirstSuccess {
		t.Fatal("did not expect first success at 3/3")
	}
	if !out.JustCompleted {
		t.Fatal("expected completion at 3/3")
	}
	if out.Status != models.ContentStatusCompleted {
		t.Fatalf("expected completed status, got %q", out.Status)
	}
}

func TestRecordContentFailure_DoesNotDemoteCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

	status, err := recordContentFailure(context.Background(), db, "content-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != models.ContentStatusCompleted {
		t.Fatalf("expected completed to stick, got %q", status)
	}
}

func TestRecordContentFailure_MarksFailedWhenNothingSucceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectQuery("UPDATE content_items").
		WithArgs("content-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("failed"))

	status, err := recordContentFailure(context.Background(), db, "content-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != models.ContentStatusFailed {
		t.Fatalf("expected failed status, got %q", status)
	}
}
