package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"syndicate/stevedore/pkg/api/stevedore"
	"syndicate/stevedore/pkg/middleware"
	"syndicate/stevedore/pkg/models"
)

const statsCacheKey = "pipeline_stats"

// GetPipelineStats returns today's rollup plus current capacity and platform
// health. Served through the read cache; write paths invalidate the key on
// commit.
func GetPipelineStats(c middleware.Context) {
	val, ok, err := statsCache.Get(c.Request.Context(), statsCacheKey, loadPipelineStats)
	if err != nil {
		logger.WithError(err).Error("Failed to load pipeline stats")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, val)
}

func loadPipelineStats(ctx context.Context, _ string) (interface{}, bool, error) {
	resp := stevedore.StatsResponse{
		Date: time.Now().UTC().Format("2006-01-02"),
	}

	var m models.PipelineMetric
	err := db.QueryRowContext(ctx, `
		SELECT metric_date, total_posts, successful_posts, failed_posts, tier1_posts, tier2_posts, tier3_posts, success_rate, updated_at
		FROM pipeline_metrics
		WHERE metric_date = CURRENT_DATE
	`).Scan(&m.MetricDate, &m.TotalPosts, &m.SuccessfulPosts, &m.FailedPosts,
		&m.Tier1Posts, &m.Tier2Posts, &m.Tier3Posts, &m.SuccessRate, &m.UpdatedAt)
	if err == nil {
		resp.Metrics = &m
	} else if err != sql.ErrNoRows {
		return nil, false, err
	}

	pools, err := queryCapacityPools(ctx)
	if err != nil {
		return nil, false, err
	}
	resp.Capacity = pools

	platforms, err := queryPlatformHealth(ctx)
	if err != nil {
		return nil, false, err
	}
	resp.Platforms = platforms

	return resp, true, nil
}

func queryCapacityPools(ctx context.Context) ([]models.CapacityPool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tier, total_slots, used_slots, reserved_slots, available_slots, updated_at
		FROM capacity_pools
		ORDER BY tier
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pools := []models.CapacityPool{}
	for rows.Next() {
		var p models.CapacityPool
		if err := rows.Scan(&p.Tier, &p.TotalSlots, &p.UsedSlots, &p.ReservedSlots, &p.AvailableSlots, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func queryPlatformHealth(ctx context.Context) ([]models.PlatformHealth, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT platform, tier, management_tool, status, failure_count, last_successful_post, last_failed_post, response_time_ms, updated_at
		FROM platform_health
		ORDER BY platform
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := []models.PlatformHealth{}
	for rows.Next() {
		var ph models.PlatformHealth
		if err := rows.Scan(&ph.Platform, &ph.Tier, &ph.ManagementTool, &ph.Status, &ph.FailureCount,
			&ph.LastSuccessfulPost, &ph.LastFailedPost, &ph.ResponseTimeMs, &ph.UpdatedAt); err != nil {
			return nil, err
		}
		platforms = append(platforms, ph)
	}
	return platforms, rows.Err()
}

// GetCapacityPools returns the live per-tier slot ledger
func GetCapacityPools(c middleware.Context) {
	pools, err := queryCapacityPools(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("Failed to query capacity pools")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, middleware.H{"pools": pools})
}

// GetPlatformHealth returns the current health row for every known platform
func GetPlatformHealth(c middleware.Context) {
	platforms, err := queryPlatformHealth(c.Request.Context())
	if err != nil {
		logger.WithError(err).Error("Failed to query platform health")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, middleware.H{"platforms": platforms})
}
