package handlers

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"syndicate/stevedore/pkg/cache"
	"syndicate/stevedore/pkg/kafka"
	"syndicate/stevedore/pkg/logging"
)

var (
	db         *sql.DB
	logger     logging.Logger
	metrics    *IngestMetrics
	publisher  EventPublisher
	statsCache *cache.Cache
)

// IngestMetrics holds all Prometheus metrics for Stevedore
type IngestMetrics struct {
	EventsIngested *prometheus.CounterVec
	AlertsRaised   *prometheus.CounterVec
	CapacitySlots  *prometheus.GaugeVec
	DBQueries      *prometheus.CounterVec
	DBDuration     *prometheus.HistogramVec
}

// EventPublisher fans accepted events out to the cross-pillar bus.
// Publishing is best-effort: a bus outage never fails an accepted event.
type EventPublisher interface {
	PublishPipelineEvent(event *kafka.PipelineEvent) error
}

// Init initializes the handlers with database, logger, metrics and the bus producer
func Init(database *sql.DB, log logging.Logger, ingestMetrics *IngestMetrics, pub EventPublisher) {
	db = database
	logger = log
	metrics = ingestMetrics
	publisher = pub
	statsCache = cache.New(cache.Options{
		TTL:                  10 * time.Second,
		StaleWhileRevalidate: 20 * time.Second,
		MaxEntries:           8,
	})
}
