package handlers

import (
	"context"
	"database/sql"
	"fmt"

	"syndicate/stevedore/pkg/logging"
	"syndicate/stevedore/pkg/models"
)

// Capacity alert thresholds for finite tiers.
const (
	capacityWarningSlots  = 20
	capacityCriticalSlots = 10
)

// consumeCapacity burns one slot from the tier's pool and recomputes
// available_slots in the same statement, so the two columns can never drift
// apart. Returns (nil, nil) when the tier was never initialized; capacity
// accounting is best-effort relative to the ledger write.
func consumeCapacity(ctx context.Context, q querier, tier string) (*models.CapacityPool, error) {
	var pool models.CapacityPool
	err := q.QueryRowContext(ctx, `
		UPDATE capacity_pools
		SET used_slots = used_slots + 1,
		    available_slots = CASE
		        WHEN total_slots = -1 THEN -1
		        ELSE total_slots - (used_slots + 1) - reserved_slots
		    END,
		    updated_at = NOW()
		WHERE tier = $1
		RETURNING tier, total_slots, used_slots, reserved_slots, available_slots
	`, tier).Scan(&pool.Tier, &pool.TotalSlots, &pool.UsedSlots, &pool.ReservedSlots, &pool.AvailableSlots)
	if err == sql.ErrNoRows {
		logger.WithField("tier", tier).Warn("Capacity pool not initialized for tier; skipping slot accounting")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// evaluateCapacityThresholds raises a capacity_warning alert when a consume
// lands a finite tier in a low-capacity band. Exhausted pools alert at
// critical as well. Every crossing event alerts; there is no dedup window.
func evaluateCapacityThresholds(ctx context.Context, q querier, pool *models.CapacityPool) (string, error) {
	if pool == nil || pool.Unlimited() {
		return "", nil
	}

	var severity, message string
	switch {
	case pool.AvailableSlots <= 0:
		severity = models.AlertSeverityCritical
		message = fmt.Sprintf("Capacity exhausted for tier %s: %d slots remaining", pool.Tier, pool.AvailableSlots)
	case pool.AvailableSlots <= capacityCriticalSlots:
		severity = models.AlertSeverityCritical
		message = fmt.Sprintf("Capacity critically low for tier %s: %d slots remaining", pool.Tier, pool.AvailableSlots)
	case pool.AvailableSlots <= capacityWarningSlots:
		severity = models.AlertSeverityWarning
		message = fmt.Sprintf("Capacity low for tier %s: %d slots remaining", pool.Tier, pool.AvailableSlots)
	default:
		return "", nil
	}

	details := models.JSONB{
		"tier":            pool.Tier,
		"total_slots":     pool.TotalSlots,
		"used_slots":      pool.UsedSlots,
		"reserved_slots":  pool.ReservedSlots,
		"available_slots": pool.AvailableSlots,
	}
	alertID, err := createAlert(ctx, q, severity, models.AlertCategoryCapacityWarning, message, details, nil, nil)
	if err != nil {
		return "", err
	}

	logger.WithFields(logging.Fields{
		"tier":            pool.Tier,
		"available_slots": pool.AvailableSlots,
		"severity":        severity,
		"alert_id":        alertID,
	}).Warn("Capacity threshold crossed")
	return alertID, nil
}
