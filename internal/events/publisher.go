package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Musanse/shiteni-sub006/internal/models"
)

// Publisher emits message.sent events for downstream consumers (analytics,
// the notification service). Best-effort, same contract as the live
// broadcast: a failed publish is logged by the caller and never rolls back
// the stored message.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w}
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.ConversationID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Publisher) Close() error { return p.writer.Close() }
