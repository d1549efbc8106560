package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB is a custom type for handling JSONB fields
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface for JSONB
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONB
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Content item lifecycle. Transitions are monotonic: once completed, an item
// never moves back to pending. A failed item may still move forward when a
// later success arrives.
const (
	ContentStatusPending    = "pending"
	ContentStatusInProgress = "in_progress"
	ContentStatusCompleted  = "completed"
	ContentStatusFailed     = "failed"
)

// Distribution log outcomes
const (
	PostStatusSuccess = "success"
	PostStatusFailed  = "failed"
)

// Platform health states
const (
	PlatformStatusHealthy  = "healthy"
	PlatformStatusDegraded = "degraded"
)

// Alert severities
const (
	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

// Alert categories
const (
	AlertCategoryCapacityWarning = "capacity_warning"
	AlertCategoryPlatformFailure = "platform_failure"
)

// ContentItem tracks one logical piece of content across all platforms it
// targets. The id is externally supplied and is the idempotency key for
// get-or-create.
type ContentItem struct {
	ID                 string     `json:"id" db:"id"`
	Title              string     `json:"title" db:"title"`
	ContentType        string     `json:"content_type" db:"content_type"`
	Tier               string     `json:"tier" db:"tier"`
	PlatformsTargeted  int        `json:"platforms_targeted" db:"platforms_targeted"`
	PlatformsCompleted int        `json:"platforms_completed" db:"platforms_completed"`
	Status             string     `json:"status" db:"status"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// DistributionLog is one immutable row per platform-post attempt. It is the
// audit trail the content counters are a projection of.
type DistributionLog struct {
	ID             string    `json:"id" db:"id"`
	ContentID      string    `json:"content_id" db:"content_id"`
	Platform       string    `json:"platform" db:"platform"`
	Tier           string    `json:"tier" db:"tier"`
	ManagementTool string    `json:"management_tool" db:"management_tool"`
	Status         string    `json:"status" db:"status"`
	EventID        *string   `json:"event_id,omitempty" db:"event_id"`
	PlatformPostID *string   `json:"platform_post_id,omitempty" db:"platform_post_id"`
	PostURL        *string   `json:"post_url,omitempty" db:"post_url"`
	SourceURL      *string   `json:"source_url,omitempty" db:"source_url"`
	ErrorMessage   *string   `json:"error_message,omitempty" db:"error_message"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty" db:"response_time_ms"`
	Metadata       JSONB     `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// UnlimitedSlots is the sentinel for tiers without a finite slot budget.
const UnlimitedSlots = -1

// CapacityPool is the per-tier slot ledger. AvailableSlots is always
// recomputed from the other columns, never drifted independently.
type CapacityPool struct {
	Tier           string    `json:"tier" db:"tier"`
	TotalSlots     int       `json:"total_slots" db:"total_slots"`
	UsedSlots      int       `json:"used_slots" db:"used_slots"`
	ReservedSlots  int       `json:"reserved_slots" db:"reserved_slots"`
	AvailableSlots int       `json:"available_slots" db:"available_slots"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Unlimited reports whether this pool has no finite slot budget.
func (p CapacityPool) Unlimited() bool {
	return p.TotalSlots == UnlimitedSlots
}

// PlatformHealth is the rolling operational view of one platform.
// FailureCount counts consecutive failures since the last success.
type PlatformHealth struct {
	Platform           string     `json:"platform" db:"platform"`
	Tier               string     `json:"tier" db:"tier"`
	ManagementTool     string     `json:"management_tool" db:"management_tool"`
	Status             string     `json:"status" db:"status"`
	FailureCount       int        `json:"failure_count" db:"failure_count"`
	LastSuccessfulPost *time.Time `json:"last_successful_post,omitempty" db:"last_successful_post"`
	LastFailedPost     *time.Time `json:"last_failed_post,omitempty" db:"last_failed_post"`
	ResponseTimeMs     *int       `json:"response_time_ms,omitempty" db:"response_time_ms"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Alert is an immutable operator notification raised at a threshold crossing.
// Only the is_read flag ever changes after insert.
type Alert struct {
	ID               string    `json:"id" db:"id"`
	Severity         string    `json:"severity" db:"severity"`
	Category         string    `json:"category" db:"category"`
	Message          string    `json:"message" db:"message"`
	Details          JSONB     `json:"details,omitempty" db:"details"`
	RelatedPlatform  *string   `json:"related_platform,omitempty" db:"related_platform"`
	RelatedContentID *string   `json:"related_content_id,omitempty" db:"related_content_id"`
	IsRead           bool      `json:"is_read" db:"is_read"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// PipelineMetric is the additive per-day rollup. Purely derived; safe to
// recompute from distribution_logs at any time.
type PipelineMetric struct {
	MetricDate      time.Time `json:"metric_date" db:"metric_date"`
	TotalPosts      int       `json:"total_posts" db:"total_posts"`
	SuccessfulPosts int       `json:"successful_posts" db:"successful_posts"`
	FailedPosts     int       `json:"failed_posts" db:"failed_posts"`
	Tier1Posts      int       `json:"tier1_posts" db:"tier1_posts"`
	Tier2Posts      int       `json:"tier2_posts" db:"tier2_posts"`
	Tier3Posts      int       `json:"tier3_posts" db:"tier3_posts"`
	SuccessRate     float64   `json:"success_rate" db:"success_rate"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
