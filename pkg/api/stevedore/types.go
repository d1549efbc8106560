package stevedore

import "syndicate/stevedore/pkg/models"

// PostSucceededRequest is the inbound notification that a publishing tool
// finished posting a content item to one platform.
type PostSucceededRequest struct {
	ContentID         string       `json:"content_id"`
	Title             string       `json:"title"`
	ContentType       string       `json:"content_type"`
	Tier              string       `json:"tier"`
	Platform          string       `json:"platform"`
	ManagementTool    string       `json:"management_tool"`
	EventID           string       `json:"event_id,omitempty"`
	PlatformsTargeted int          `json:"platforms_targeted,omitempty"`
	PlatformPostID    string       `json:"platform_post_id,omitempty"`
	PostURL           string       `json:"post_url,omitempty"`
	SourceURL         string       `json:"source_url,omitempty"`
	ResponseTimeMs    *int         `json:"response_time_ms,omitempty"`
	Metadata          models.JSONB `json:"metadata,omitempty"`
}

// PostFailedRequest is the inbound notification that a platform post failed.
type PostFailedRequest struct {
	ContentID         string       `json:"content_id"`
	Title             string       `json:"title"`
	ContentType       string       `json:"content_type"`
	Tier              string       `json:"tier"`
	Platform          string       `json:"platform"`
	ManagementTool    string       `json:"management_tool"`
	ErrorMessage      string       `json:"error_message"`
	EventID           string       `json:"event_id,omitempty"`
	PlatformsTargeted int          `json:"platforms_targeted,omitempty"`
	SourceURL         string       `json:"source_url,omitempty"`
	ResponseTimeMs    *int         `json:"response_time_ms,omitempty"`
	Metadata          models.JSONB `json:"metadata,omitempty"`
}

// PostSucceededResponse reports the reconciled state after a success event.
type PostSucceededResponse struct {
	ContentItemID      string `json:"content_item_id"`
	DistributionLogID  string `json:"distribution_log_id,omitempty"`
	PlatformsCompleted int    `json:"platforms_completed"`
	PlatformsTargeted  int    `json:"platforms_targeted"`
	Completed          bool   `json:"completed"`
	Duplicate          bool   `json:"duplicate,omitempty"`
}

// PostFailedResponse reports the reconciled state after a failure event.
type PostFailedResponse struct {
	ContentItemID     string `json:"content_item_id"`
	DistributionLogID string `json:"distribution_log_id,omitempty"`
	Status            string `json:"status"`
	AlertID           string `json:"alert_id,omitempty"`
	Duplicate         bool   `json:"duplicate,omitempty"`
}

// ValidationErrorResponse lists the required fields missing from a request.
type ValidationErrorResponse struct {
	Error         string   `json:"error"`
	MissingFields []string `json:"missing_fields"`
}

// StatsResponse is the dashboard snapshot: today's rollup plus current
// capacity and platform health.
type StatsResponse struct {
	Date      string                  `json:"date"`
	Metrics   *models.PipelineMetric  `json:"metrics,omitempty"`
	Capacity  []models.CapacityPool   `json:"capacity"`
	Platforms []models.PlatformHealth `json:"platforms"`
}

// ContentListResponse pages over content items.
type ContentListResponse struct {
	Items []models.ContentItem `json:"items"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}

// ContentDetailResponse is one content item plus its audit trail.
type ContentDetailResponse struct {
	Item ContentItemDetail `json:"item"`
}

// ContentItemDetail embeds the distribution logs of one content item.
type ContentItemDetail struct {
	models.ContentItem
	Logs []models.DistributionLog `json:"logs"`
}

// AlertListResponse pages over alerts.
type AlertListResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Total  int            `json:"total"`
}
