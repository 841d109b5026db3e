package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes every check result as JSON, keyed by site id so all results
// of one site land on the same partition in order.
type Sink struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewSink(log *zap.Logger, brokers []string, topic string) *Sink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Sink{writer: w, topic: topic, log: log}
}

func (s *Sink) Write(ctx context.Context, r domain.CheckResult) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(r.SiteID),
		Value: value,
		Time:  r.Timestamp,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(r.Status.String())},
		},
	}
	// the caller logs and counts sink failures
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", s.topic, err)
	}
	s.log.Debug("result_published", zap.String("topic", s.topic), zap.String("site_id", string(r.SiteID)))
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

var _ repo.ResultSink = (*Sink)(nil)
