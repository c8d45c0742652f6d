package events

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w}
}

// Publish keys messages by wallet so one owner's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	b, err := ev.Encode()
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(strings.ToLower(ev.Address)),
		Value:   b,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
	})
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
