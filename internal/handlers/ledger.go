package handlers

import (
	"context"
	"database/sql"

	"syndicate/stevedore/pkg/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the ledger operations
// can run inside the per-event transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// getOrCreateContentItem returns the content item for the given id, creating
// it on first sight. Concurrent first-events for the same id race on the
// primary key, not on an application-level existence check: the insert is
// ON CONFLICT DO NOTHING and the follow-up select observes whichever insert
// won.
func getOrCreateContentItem(ctx context.Context, q querier, id, title, contentType, tier string, platformsTargeted int) (*models.ContentItem, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO content_items (id, title, content_type, tier, platforms_targeted, platforms_completed, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 'pending', NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
	`, id, title, contentType, tier, platformsTargeted)
	if err != nil {
		return nil, err
	}

	var item models.ContentItem
	err = q.QueryRowContext(ctx, `
		SELECT id, title, content_type, tier, platforms_targeted, platforms_completed, status, created_at, updated_at, completed_at
		FROM content_items
		WHERE id = $1
	`, id).Scan(
		&item.ID, &item.Title, &item.ContentType, &item.Tier,
		&item.PlatformsTargeted, &item.PlatformsCompleted, &item.Status,
		&item.CreatedAt, &item.UpdatedAt, &item.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// successOutcome is the reconciled state after one success event was applied.
type successOutcome struct {
	PlatformsCompleted int
	PlatformsTargeted  int
	Status             string
	FirstSuccess       bool
	JustCompleted      bool
}

// recordContentSuccess applies one platform success in a single atomic
// statement: increment the counter, promote the status (pending and failed
// items move forward to in_progress), and stamp completed_at exactly once
// when the target is reached. The returned post-increment counter doubles as
// the first-success signal for capacity accounting.
func recordContentSuccess(ctx context.Context, q querier, contentID string) (successOutcome, error) {
	var out successOutcome
	err := q.QueryRowContext(ctx, `
		UPDATE content_items
		SET platforms_completed = platforms_completed + 1,
		    status = CASE
		        WHEN platforms_completed + 1 >= platforms_targeted THEN 'completed'
		        WHEN status IN ('pending', 'failed') THEN 'in_progress'
		        ELSE status
		    END,
		    completed_at = CASE
		        WHEN platforms_completed + 1 >= platforms_targeted AND completed_at IS NULL THEN NOW()
		        ELSE completed_at
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING platforms_completed, platforms_targeted, status
	`, contentID).Scan(&out.PlatformsCompleted, &out.PlatformsTargeted, &out.Status)
	if err != nil {
		return out, err
	}

	out.FirstSuccess = out.PlatformsCompleted == 1
	out.JustCompleted = out.Status == models.ContentStatusCompleted &&
		out.PlatformsCompleted == out.PlatformsTargeted
	return out, nil
}

// recordContentFailure marks an item failed only while nothing has succeeded
// for it yet. Completed items are never demoted.
func recordContentFailure(ctx context.Context, q querier, contentID string) (string, error) {
	var status string
	err := q.QueryRowContext(ctx, `
		UPDATE content_items
		SET status = CASE
		        WHEN platforms_completed = 0 AND status <> 'completed' THEN 'failed'
		        ELSE status
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING status
	`, contentID).Scan(&status)
	return status, err
}
