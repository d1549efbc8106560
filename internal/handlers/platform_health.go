package handlers

import (
	"context"
	"fmt"

	"syndicate/stevedore/pkg/logging"
	"syndicate/stevedore/pkg/models"
)

// Consecutive-failure thresholds for platform alerts.
const (
	platformWarningFailures  = 5
	platformCriticalFailures = 10
)

// recordPlatformSuccess upserts the platform row back to healthy and resets
// the failure streak. A single success clears any streak regardless of
// length.
func recordPlatformSuccess(ctx context.Context, q querier, platform, tier, managementTool string, responseTimeMs *int) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO platform_health (platform, tier, management_tool, status, failure_count, last_successful_post, response_time_ms, updated_at)
		VALUES ($1, $2, $3, 'healthy', 0, NOW(), $4, NOW())
		ON CONFLICT (platform) DO UPDATE
		SET tier = EXCLUDED.tier,
		    management_tool = EXCLUDED.management_tool,
		    status = 'healthy',
		    failure_count = 0,
		    last_successful_post = NOW(),
		    response_time_ms = EXCLUDED.response_time_ms,
		    updated_at = NOW()
	`, platform, tier, managementTool, responseTimeMs)
	return err
}

// recordPlatformFailure extends the platform's failure streak in one upsert
// and raises a platform_failure alert when the streak crosses a threshold.
// The post-increment count comes back from the statement itself, so two
// concurrent failures each observe a distinct streak length.
func recordPlatformFailure(ctx context.Context, q querier, platform, tier, managementTool string, responseTimeMs *int) (string, error) {
	var failureCount int
	err := q.QueryRowContext(ctx, `
		INSERT INTO platform_health (platform, tier, management_tool, status, failure_count, last_failed_post, response_time_ms, updated_at)
		VALUES ($1, $2, $3, 'degraded', 1, NOW(), $4, NOW())
		ON CONFLICT (platform) DO UPDATE
		SET tier = EXCLUDED.tier,
		    management_tool = EXCLUDED.management_tool,
		    status = 'degraded',
		    failure_count = platform_health.failure_count + 1,
		    last_failed_post = NOW(),
		    response_time_ms = EXCLUDED.response_time_ms,
		    updated_at = NOW()
		RETURNING failure_count
	`, platform, tier, managementTool, responseTimeMs).Scan(&failureCount)
	if err != nil {
		return "", err
	}

	var severity string
	switch {
	case failureCount >= platformCriticalFailures:
		severity = models.AlertSeverityCritical
	case failureCount >= platformWarningFailures:
		severity = models.AlertSeverityWarning
	default:
		return "", nil
	}

	message := fmt.Sprintf("Platform %s has %d consecutive failures", platform, failureCount)
	details := models.JSONB{
		"platform":        platform,
		"tier":            tier,
		"management_tool": managementTool,
		"failure_count":   failureCount,
	}
	alertID, err := createAlert(ctx, q, severity, models.AlertCategoryPlatformFailure, message, details, &platform, nil)
	if err != nil {
		return "", err
	}

	logger.WithFields(logging.Fields{
		"platform":      platform,
		"failure_count": failureCount,
		"severity":      severity,
		"alert_id":      alertID,
	}).Warn("Platform failure streak crossed threshold")
	return alertID, nil
}
