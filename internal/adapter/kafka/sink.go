package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

const defaultWriteTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

var _ domain.StreamSink = (*Sink)(nil)

// Sink writes each record as one message on a topic. Writes wait for all
// in-sync replicas so a returned nil means the record is durable.
type Sink struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

func NewSink(brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic required")
	}

	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireAll,
	}
	return newSinkWithWriter(w, topic), nil
}

func newSinkWithWriter(w messageWriter, topic string) *Sink {
	return &Sink{writer: w, topic: topic, timeout: defaultWriteTimeout}
}

func (s *Sink) Append(ctx context.Context, record []byte) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.writer.WriteMessages(cctx, kgo.Message{
		Value: record,
		Time:  time.Now(),
	})
	if err != nil {
		var kerr kgo.Error
		if errors.As(err, &kerr) && kerr == kgo.PolicyViolation {
			return fmt.Errorf("write to %s: %w: %w", s.topic, domain.ErrRejected, err)
		}
		return fmt.Errorf("write to %s: %w", s.topic, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}
