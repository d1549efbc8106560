package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"

	"syndicate/stevedore/pkg/api/stevedore"
	"syndicate/stevedore/pkg/kafka"
	"syndicate/stevedore/pkg/logging"
	"syndicate/stevedore/pkg/middleware"
	"syndicate/stevedore/pkg/models"
	"syndicate/stevedore/pkg/validation"
)

// insertDistributionLog appends one attempt to the audit trail. When the
// caller supplied an event_id, a redelivery conflicts on the partial unique
// index and the insert returns no row; that is the idempotency gate for the
// whole event, checked before any counter moves.
func insertDistributionLog(ctx context.Context, q querier, log *models.DistributionLog) (logID string, duplicate bool, err error) {
	logID = uuid.New().String()
	err = q.QueryRowContext(ctx, `
		INSERT INTO distribution_logs (id, content_id, platform, tier, management_tool, status, event_id, platform_post_id, post_url, source_url, error_message, response_time_ms, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (event_id) WHERE event_id IS NOT NULL DO NOTHING
		RETURNING id
	`, logID, log.ContentID, log.Platform, log.Tier, log.ManagementTool, log.Status,
		log.EventID, log.PlatformPostID, log.PostURL, log.SourceURL,
		log.ErrorMessage, log.ResponseTimeMs, log.Metadata).Scan(&logID)
	if err == sql.ErrNoRows {
		return "", true, nil
	}
	if err != nil {
		return "", false, err
	}
	return logID, false, nil
}

// commitIngestTx commits the per-event transaction and records its outcome
// and duration.
func commitIngestTx(tx *sql.Tx, start time.Time) error {
	err := tx.Commit()
	if metrics != nil && metrics.DBQueries != nil {
		status := "committed"
		if err != nil {
			status = "failed"
		}
		metrics.DBQueries.WithLabelValues("ingest_tx", status).Inc()
		metrics.DBDuration.WithLabelValues("ingest_tx").Observe(time.Since(start).Seconds())
	}
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostSucceeded ingests one platform success event. All state changes happen
// in a single transaction; the bus fan-out runs only after commit.
func PostSucceeded(c middleware.Context) {
	var req stevedore.PostSucceededRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.H{"error": err.Error()})
		return
	}

	if missing := validation.ValidatePostSucceeded(&req); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, stevedore.ValidationErrorResponse{
			Error:         "Missing required fields",
			MissingFields: missing,
		})
		return
	}
	targeted := validation.NormalizeTargeted(req.PlatformsTargeted)

	ctx := c.Request.Context()
	start := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to begin transaction")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	defer tx.Rollback()

	item, err := getOrCreateContentItem(ctx, tx, req.ContentID, req.Title, req.ContentType, req.Tier, targeted)
	if err != nil {
		logger.WithError(err).WithField("content_id", req.ContentID).Error("Failed to get or create content item")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	logID, duplicate, err := insertDistributionLog(ctx, tx, &models.DistributionLog{
		ContentID:      item.ID,
		Platform:       req.Platform,
		Tier:           req.Tier,
		ManagementTool: req.ManagementTool,
		Status:         models.PostStatusSuccess,
		EventID:        nullableString(req.EventID),
		PlatformPostID: nullableString(req.PlatformPostID),
		PostURL:        nullableString(req.PostURL),
		SourceURL:      nullableString(req.SourceURL),
		ResponseTimeMs: req.ResponseTimeMs,
		Metadata:       req.Metadata,
	})
	if err != nil {
		logger.WithError(err).WithField("content_id", req.ContentID).Error("Failed to insert distribution log")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	if duplicate {
		if err := commitIngestTx(tx, start); err != nil {
			logger.WithError(err).Error("Failed to commit transaction")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		if metrics != nil {
			metrics.EventsIngested.WithLabelValues("post_succeeded", "duplicate").Inc()
		}
		logger.WithFields(logging.Fields{
			"content_id": req.ContentID,
			"event_id":   req.EventID,
		}).Info("Duplicate success event acknowledged")
		c.JSON(http.StatusOK, stevedore.PostSucceededResponse{
			ContentItemID:      item.ID,
			PlatformsCompleted: item.PlatformsCompleted,
			PlatformsTargeted:  item.PlatformsTargeted,
			Completed:          item.Status == models.ContentStatusCompleted,
			Duplicate:          true,
		})
		return
	}

	outcome, err := recordContentSuccess(ctx, tx, item.ID)
	if err != nil {
		logger.WithError(err).WithField("content_id", item.ID).Error("Failed to record content success")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if outcome.FirstSuccess {
		pool, err := consumeCapacity(ctx, tx, req.Tier)
		if err != nil {
			logger.WithError(err).WithField("tier", req.Tier).Error("Failed to consume capacity slot")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		if _, err := evaluateCapacityThresholds(ctx, tx, pool); err != nil {
			logger.WithError(err).WithField("tier", req.Tier).Error("Failed to evaluate capacity thresholds")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		if metrics != nil && pool != nil && !pool.Unlimited() {
			metrics.CapacitySlots.WithLabelValues(pool.Tier).Set(float64(pool.AvailableSlots))
		}
	}

	if err := recordPlatformSuccess(ctx, tx, req.Platform, req.Tier, req.ManagementTool, req.ResponseTimeMs); err != nil {
		logger.WithError(err).WithField("platform", req.Platform).Error("Failed to record platform success")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if err := bumpDailyMetrics(ctx, tx, req.Tier, true); err != nil {
		logger.WithError(err).Error("Failed to update daily metrics")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if err := commitIngestTx(tx, start); err != nil {
		logger.WithError(err).Error("Failed to commit transaction")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if metrics != nil {
		metrics.EventsIngested.WithLabelValues("post_succeeded", "accepted").Inc()
	}
	statsCache.Delete(statsCacheKey)

	publishEvent(kafka.EventPostSucceeded, req.EventID, item.ID, req.Platform, req.Tier, map[string]interface{}{
		"platforms_completed": outcome.PlatformsCompleted,
		"platforms_targeted":  outcome.PlatformsTargeted,
	})
	if outcome.JustCompleted {
		publishEvent(kafka.EventContentCompleted, "", item.ID, "", req.Tier, map[string]interface{}{
			"platforms_targeted": outcome.PlatformsTargeted,
		})
	}

	logger.WithFields(logging.Fields{
		"content_id":          item.ID,
		"platform":            req.Platform,
		"platforms_completed": outcome.PlatformsCompleted,
		"platforms_targeted":  outcome.PlatformsTargeted,
		"completed":           outcome.JustCompleted,
	}).Info("Success event reconciled")

	c.JSON(http.StatusOK, stevedore.PostSucceededResponse{
		ContentItemID:      item.ID,
		DistributionLogID:  logID,
		PlatformsCompleted: outcome.PlatformsCompleted,
		PlatformsTargeted:  outcome.PlatformsTargeted,
		Completed:          outcome.Status == models.ContentStatusCompleted,
	})
}

// PostFailed ingests one platform failure event. Failures never touch the
// capacity pool or the completion counter; they extend the platform failure
// streak and may raise an alert.
func PostFailed(c middleware.Context) {
	var req stevedore.PostFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.H{"error": err.Error()})
		return
	}

	if missing := validation.ValidatePostFailed(&req); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, stevedore.ValidationErrorResponse{
			Error:         "Missing required fields",
			MissingFields: missing,
		})
		return
	}
	targeted := validation.NormalizeTargeted(req.PlatformsTargeted)

	ctx := c.Request.Context()
	start := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to begin transaction")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	defer tx.Rollback()

	item, err := getOrCreateContentItem(ctx, tx, req.ContentID, req.Title, req.ContentType, req.Tier, targeted)
	if err != nil {
		logger.WithError(err).WithField("content_id", req.ContentID).Error("Failed to get or create content item")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	logID, duplicate, err := insertDistributionLog(ctx, tx, &models.DistributionLog{
		ContentID:      item.ID,
		Platform:       req.Platform,
		Tier:           req.Tier,
		ManagementTool: req.ManagementTool,
		Status:         models.PostStatusFailed,
		EventID:        nullableString(req.EventID),
		SourceURL:      nullableString(req.SourceURL),
		ErrorMessage:   nullableString(req.ErrorMessage),
		ResponseTimeMs: req.ResponseTimeMs,
		Metadata:       req.Metadata,
	})
	if err != nil {
		logger.WithError(err).WithField("content_id", req.ContentID).Error("Failed to insert distribution log")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	if duplicate {
		if err := commitIngestTx(tx, start); err != nil {
			logger.WithError(err).Error("Failed to commit transaction")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		if metrics != nil {
			metrics.EventsIngested.WithLabelValues("post_failed", "duplicate").Inc()
		}
		logger.WithFields(logging.Fields{
			"content_id": req.ContentID,
			"event_id":   req.EventID,
		}).Info("Duplicate failure event acknowledged")
		c.JSON(http.StatusOK, stevedore.PostFailedResponse{
			ContentItemID: item.ID,
			Status:        item.Status,
			Duplicate:     true,
		})
		return
	}

	status, err := recordContentFailure(ctx, tx, item.ID)
	if err != nil {
		logger.WithError(err).WithField("content_id", item.ID).Error("Failed to record content failure")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	alertID, err := recordPlatformFailure(ctx, tx, req.Platform, req.Tier, req.ManagementTool, req.ResponseTimeMs)
	if err != nil {
		logger.WithError(err).WithField("platform", req.Platform).Error("Failed to record platform failure")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if err := bumpDailyMetrics(ctx, tx, req.Tier, false); err != nil {
		logger.WithError(err).Error("Failed to update daily metrics")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if err := commitIngestTx(tx, start); err != nil {
		logger.WithError(err).Error("Failed to commit transaction")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	if metrics != nil {
		metrics.EventsIngested.WithLabelValues("post_failed", "accepted").Inc()
	}
	statsCache.Delete(statsCacheKey)

	publishEvent(kafka.EventPostFailed, req.EventID, item.ID, req.Platform, req.Tier, map[string]interface{}{
		"error_message": req.ErrorMessage,
	})
	if alertID != "" {
		publishEvent(kafka.EventAlertRaised, "", item.ID, req.Platform, req.Tier, map[string]interface{}{
			"alert_id": alertID,
		})
	}

	logger.WithFields(logging.Fields{
		"content_id": item.ID,
		"platform":   req.Platform,
		"status":     status,
	}).Info("Failure event reconciled")

	c.JSON(http.StatusOK, stevedore.PostFailedResponse{
		ContentItemID:     item.ID,
		DistributionLogID: logID,
		Status:            status,
		AlertID:           alertID,
	})
}

// publishEvent fans one event out to the bus after commit. Best-effort: a
// publish failure is logged and swallowed.
func publishEvent(eventType kafka.PipelineEventType, eventID, contentID, platform, tier string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if eventID == "" {
		eventID = uuid.New().String()
	}
	err := publisher.PublishPipelineEvent(&kafka.PipelineEvent{
		EventID:   eventID,
		EventType: eventType,
		Source:    "stevedore",
		Timestamp: time.Now().UTC(),
		ContentID: contentID,
		Platform:  platform,
		Tier:      tier,
		Data:      data,
	})
	if err != nil {
		logger.WithError(err).WithFields(logging.Fields{
			"event_type": string(eventType),
			"content_id": contentID,
		}).Warn("Failed to publish pipeline event")
	}
}
