package handlers

import (
	"context"
)

// bumpDailyMetrics folds one post outcome into today's rollup row. The whole
// day is one upsert: counters are additive and success_rate is recomputed
// from the updated counters inside the statement, so concurrent events never
// read stale totals. Unknown tiers still count toward the totals, just not a
// tier column.
func bumpDailyMetrics(ctx context.Context, q querier, tier string, success bool) error {
	successInc := 0
	failedInc := 0
	if success {
		successInc = 1
	} else {
		failedInc = 1
	}

	tier1Inc, tier2Inc, tier3Inc := 0, 0, 0
	switch tier {
	case "tier1":
		tier1Inc = 1
	case "tier2":
		tier2Inc = 1
	case "tier3":
		tier3Inc = 1
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO pipeline_metrics (metric_date, total_posts, successful_posts, failed_posts, tier1_posts, tier2_posts, tier3_posts, success_rate, updated_at)
		VALUES (CURRENT_DATE, 1, $1, $2, $3, $4, $5, $1 * 100, NOW())
		ON CONFLICT (metric_date) DO UPDATE
		SET total_posts = pipeline_metrics.total_posts + 1,
		    successful_posts = pipeline_metrics.successful_posts + $1,
		    failed_posts = pipeline_metrics.failed_posts + $2,
		    tier1_posts = pipeline_metrics.tier1_posts + $3,
		    tier2_posts = pipeline_metrics.tier2_posts + $4,
		    tier3_posts = pipeline_metrics.tier3_posts + $5,
		    success_rate = ROUND((pipeline_metrics.successful_posts + $1)::numeric * 100 / (pipeline_metrics.total_posts + 1), 2),
		    updated_at = NOW()
	`, successInc, failedInc, tier1Inc, tier2Inc, tier3Inc)
	return err
}
