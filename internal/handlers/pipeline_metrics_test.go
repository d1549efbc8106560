package handlers

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"syndicate/stevedore/pkg/logging"
)

func TestBumpDailyMetrics_SuccessTier1(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectExec("INSERT INTO pipeline_metrics").
		WithArgs(1, 0, 1, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := bumpDailyMetrics(context.Background(), db, "tier1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBumpDailyMetrics_FailureTier3(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectExec("INSERT INTO pipeline_metrics").
		WithArgs(0, 1, 0, 0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := bumpDailyMetrics(context.Background(), db, "tier3", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBumpDailyMetrics_UnknownTierCountsTotalsOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	mock.ExpectExec("INSERT INTO pipeline_metrics").
		WithArgs(1, 0, 0, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := bumpDailyMetrics(context.Background(), db, "mystery", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBumpDailyMetrics_RecomputesSuccessRateInStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	Init(db, logging.NewLogger(), nil, nil)

	// The rate must come from the post-increment counters inside the upsert
	// itself, e.g. 7 successes out of 10 posts rounds to 70.00.
	mock.ExpectExec(`success_rate = ROUND\(\(pipeline_metrics\.successful_posts \+ \$1\)::numeric \* 100 / \(pipeline_metrics\.total_posts \+ 1\), 2\)`).
		WithArgs(1, 0, 1, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := bumpDailyMetrics(context.Background(), db, "tier1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
