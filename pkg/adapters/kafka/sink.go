// Package kafka provides a fire-and-forget commit sink that produces every
// record to a Kafka topic. It implements ports.CommitSink only; replaying a
// document is the consumer's business.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

// Sink produces commit records to one topic. The document ID is the
// partition key, so one document's records land in one partition and keep
// their Seq order for consumers.
type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

type Option func(*Sink)

// WithLogger sets a custom structured logger for the sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// NewSink creates a producing sink for the given brokers and topic.
func NewSink(brokers []string, topic string, opts ...Option) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("canopy"),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	sink := &Sink{
		client: client,
		topic:  topic,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink, nil
}

// Commit produces one record and waits for broker acknowledgement, so a
// failure surfaces to the cascade that triggered the commit.
func (s *Sink) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	record, err := newRecord(s.topic, rec)
	if err != nil {
		return err
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce commit record: %w", err)
	}
	s.logger.Debug("commit record produced",
		"doc", rec.DocID, "node", int64(rec.NodeID), "seq", rec.Seq)
	return nil
}

// HealthCheck pings the brokers.
func (s *Sink) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return fmt.Errorf("kafka health check failed: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *Sink) Close() error {
	s.client.Close()
	return nil
}

func newRecord(topic string, rec *domain.CommitRecord) (*kgo.Record, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal commit record: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(rec.DocID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "role", Value: []byte(rec.Role)},
			{Key: "node_id", Value: []byte(strconv.FormatInt(int64(rec.NodeID), 10))},
		},
	}, nil
}
