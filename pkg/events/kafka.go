// Package events mirrors tracking room events to Kafka.
package events

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"order-tracking/internal/logging"
	"order-tracking/internal/metrics"
	"order-tracking/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror publishes every broadcast event to a topic keyed by order id,
// so all events of one order land on the same partition in order.
type KafkaMirror struct {
	writer messageWriter
}

// NewKafkaMirror creates a mirror with an async writer. Delivery failures
// are logged from the writer's completion callback.
func NewKafkaMirror(brokers []string, topic string) *KafkaMirror {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.MirroredEvents.WithLabelValues("failed").Add(float64(len(messages)))
				logging.Warn().Err(err).Int("messages", len(messages)).Msg("kafka mirror delivery failed")
				return
			}
			metrics.MirroredEvents.WithLabelValues("ok").Add(float64(len(messages)))
		},
	}
	return &KafkaMirror{writer: w}
}

// Mirror encodes evt and hands it to the writer. It never blocks on the broker.
func (m *KafkaMirror) Mirror(evt models.TrackingEvent) {
	msg, err := encode(evt)
	if err != nil {
		metrics.MirroredEvents.WithLabelValues("encode_error").Inc()
		logging.Error().Err(err).Str("type", string(evt.Type)).Msg("kafka mirror encode failed")
		return
	}
	if err := m.writer.WriteMessages(context.Background(), msg); err != nil {
		metrics.MirroredEvents.WithLabelValues("failed").Inc()
		logging.Warn().Err(err).Str("order_id", evt.OrderID).Msg("kafka mirror write failed")
	}
}

func encode(evt models.TrackingEvent) (kafka.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
		Time:  evt.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}, nil
}

// Close flushes pending messages and closes the connection.
func (m *KafkaMirror) Close() error {
	return m.writer.Close()
}
