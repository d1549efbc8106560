package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"syndicate/stevedore/pkg/api/stevedore"
	"syndicate/stevedore/pkg/middleware"
	"syndicate/stevedore/pkg/models"
)

// createAlert inserts one alert row inside the caller's transaction and bumps
// the alert counter. Alerts are append-only; nothing here dedups repeated
// crossings.
func createAlert(ctx context.Context, q querier, severity, category, message string, details models.JSONB, relatedPlatform, relatedContentID *string) (string, error) {
	alertID := uuid.New().String()
	_, err := q.ExecContext(ctx, `
		INSERT INTO alerts (id, severity, category, message, details, related_platform, related_content_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW())
	`, alertID, severity, category, message, details, relatedPlatform, relatedContentID)
	if err != nil {
		return "", err
	}

	if metrics != nil {
		metrics.AlertsRaised.WithLabelValues(category, severity).Inc()
	}
	return alertID, nil
}

// GetAlerts lists alerts newest-first with optional severity, category and
// unread filters
func GetAlerts(c middleware.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	where := "WHERE 1=1"
	args := []interface{}{}
	argN := 1

	if severity := c.Query("severity"); severity != "" {
		where += " AND severity = $" + strconv.Itoa(argN)
		args = append(args, severity)
		argN++
	}
	if category := c.Query("category"); category != "" {
		where += " AND category = $" + strconv.Itoa(argN)
		args = append(args, category)
		argN++
	}
	if c.Query("unread") == "true" {
		where += " AND NOT is_read"
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM alerts "+where, args...).Scan(&total); err != nil {
		logger.WithError(err).Error("Failed to count alerts")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	query := `
		SELECT id, severity, category, message, details, related_platform, related_content_id, is_read, created_at
		FROM alerts ` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(argN) + ` OFFSET $` + strconv.Itoa(argN+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		logger.WithError(err).Error("Failed to query alerts")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Severity, &a.Category, &a.Message, &a.Details,
			&a.RelatedPlatform, &a.RelatedContentID, &a.IsRead, &a.CreatedAt); err != nil {
			logger.WithError(err).Error("Failed to scan alert")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		alerts = append(alerts, a)
	}

	c.JSON(http.StatusOK, stevedore.AlertListResponse{
		Alerts: alerts,
		Page:   page,
		Limit:  limit,
		Total:  total,
	})
}

// MarkAlertRead flips the is_read flag on one alert
func MarkAlertRead(c middleware.Context) {
	alertID := c.Param("id")

	result, err := db.Exec(`UPDATE alerts SET is_read = TRUE WHERE id = $1`, alertID)
	if err != nil {
		logger.WithError(err).WithField("alert_id", alertID).Error("Failed to mark alert read")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.WithError(err).WithField("alert_id", alertID).Error("Failed to read rows affected")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, middleware.H{"error": "Alert not found"})
		return
	}

	c.JSON(http.StatusOK, middleware.H{"id": alertID, "is_read": true})
}
