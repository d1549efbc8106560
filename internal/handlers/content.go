package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"syndicate/stevedore/pkg/api/stevedore"
	"syndicate/stevedore/pkg/middleware"
	"syndicate/stevedore/pkg/models"
)

// GetContentItems lists content items newest-first with optional status and
// tier filters
func GetContentItems(c middleware.Context) {
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

	if status := c.Query("status"); status != "" {
		where += " AND status = $" + strconv.Itoa(argN)
		args = append(args, status)
		argN++
	}
	if tier := c.Query("tier"); tier != "" {
		where += " AND tier = $" + strconv.Itoa(argN)
		args = append(args, tier)
		argN++
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM content_items "+where, args...).Scan(&total); err != nil {
		logger.WithError(err).Error("Failed to count content items")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	query := `
		SELECT id, title, content_type, tier, platforms_targeted, platforms_completed, status, created_at, updated_at, completed_at
		FROM content_items ` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(argN) + ` OFFSET $` + strconv.Itoa(argN+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		logger.WithError(err).Error("Failed to query content items")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	items := []models.ContentItem{}
	for rows.Next() {
		var item models.ContentItem
		if err := rows.Scan(&item.ID, &item.Title, &item.ContentType, &item.Tier,
			&item.PlatformsTargeted, &item.PlatformsCompleted, &item.Status,
			&item.CreatedAt, &item.UpdatedAt, &item.CompletedAt); err != nil {
			logger.WithError(err).Error("Failed to scan content item")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, stevedore.ContentListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// GetContentItem returns one content item with its full audit trail
func GetContentItem(c middleware.Context) {
	contentID := c.Param("id")

	var item models.ContentItem
	err := db.QueryRow(`
		SELECT id, title, content_type, tier, platforms_targeted, platforms_completed, status, created_at, updated_at, completed_at
		FROM content_items
		WHERE id = $1
	`, contentID).Scan(&item.ID, &item.Title, &item.ContentType, &item.Tier,
		&item.PlatformsTargeted, &item.PlatformsCompleted, &item.Status,
		&item.CreatedAt, &item.UpdatedAt, &item.CompletedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, middleware.H{"error": "Content item not found"})
		return
	}
	if err != nil {
		logger.WithError(err).WithField("content_id", contentID).Error("Failed to query content item")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}

	rows, err := db.Query(`
		SELECT id, content_id, platform, tier, management_tool, status, event_id, platform_post_id, post_url, source_url, error_message, response_time_ms, metadata, created_at
		FROM distribution_logs
		WHERE content_id = $1
		ORDER BY created_at DESC
	`, contentID)
	if err != nil {
		logger.WithError(err).WithField("content_id", contentID).Error("Failed to query distribution logs")
		c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	logs := []models.DistributionLog{}
	for rows.Next() {
		var l models.DistributionLog
		if err := rows.Scan(&l.ID, &l.ContentID, &l.Platform, &l.Tier, &l.ManagementTool, &l.Status,
			&l.EventID, &l.PlatformPostID, &l.PostURL, &l.SourceURL,
			&l.ErrorMessage, &l.ResponseTimeMs, &l.Metadata, &l.CreatedAt); err != nil {
			logger.WithError(err).Error("Failed to scan distribution log")
			c.JSON(http.StatusInternalServerError, middleware.H{"error": "Internal server error"})
			return
		}
		logs = append(logs, l)
	}

	c.JSON(http.StatusOK, stevedore.ContentDetailResponse{
		Item: stevedore.ContentItemDetail{
			ContentItem: item,
			Logs:        logs,
		},
	})
}
