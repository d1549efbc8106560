package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes pipeline events to the cross-pillar bus.
type Producer struct {
	client    *kgo.Client
	logger    *logrus.Logger
	messages  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewProducer creates a new bus producer.
func NewProducer(brokers []string, logger *logrus.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("stevedore"),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10 * time.Millisecond),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger,
	}, nil
}

// WithMetrics attaches the bus metrics created by the service's metrics
// collector. Publishing works without them.
func (p *Producer) WithMetrics(messages *prometheus.CounterVec, durations *prometheus.HistogramVec) {
	p.messages = messages
	p.durations = durations
}

func (p *Producer) Close() error {
	p.client.Close()
	return nil
}

// PublishPipelineEvent publishes a single typed event to the bus.
func (p *Producer) PublishPipelineEvent(event *PipelineEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: PipelineEventsTopic,
		Key:   []byte(event.EventID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if event.ContentID != "" {
		record.Headers = append(record.Headers, kgo.RecordHeader{
			Key:   "content_id",
			Value: []byte(event.ContentID),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	result := p.client.ProduceSync(ctx, record)
	produceErr := result.FirstErr()
	if p.durations != nil {
		p.durations.WithLabelValues("produce").Observe(time.Since(start).Seconds())
	}
	if p.messages != nil {
		status := "success"
		if produceErr != nil {
			status = "error"
		}
		p.messages.WithLabelValues(PipelineEventsTopic, "produce", status).Inc()
	}
	if produceErr != nil {
		return fmt.Errorf("failed to produce message: %w", produceErr)
	}

	return nil
}

func (p *Producer) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return nil
}

// GetClient returns the underlying kgo.Client for health checks
func (p *Producer) GetClient() *kgo.Client {
	return p.client
}
