package kafka

import (
	"time"
)

// PipelineEventType identifies one kind of cross-pillar pipeline event.
type PipelineEventType string

// Event types fanned out to the pipeline bus after an inbound event commits.
const (
	EventPostSucceeded    PipelineEventType = "post_succeeded"
	EventPostFailed       PipelineEventType = "post_failed"
	EventContentCompleted PipelineEventType = "content_completed"
	EventAlertRaised      PipelineEventType = "alert_raised"
)

// PipelineEventsTopic is the bus topic other pillars consume from.
const PipelineEventsTopic = "pipeline_events"

// PipelineEvent is the typed message published to the pipeline bus. Delivery
// downstream is at-least-once and unordered; consumers dedupe on EventID.
type PipelineEvent struct {
	EventID   string                 `json:"event_id"`
	EventType PipelineEventType      `json:"event_type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	ContentID string                 `json:"content_id,omitempty"`
	Platform  string                 `json:"platform,omitempty"`
	Tier      string                 `json:"tier,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
