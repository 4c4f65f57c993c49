package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/brownie-shop/internal/events"
	"github.com/segmentio/kafka-go"
)

// EventTypeHeader names the header carrying events.Event.Type so consumers
// can skip payloads they do not handle without decoding them.
const EventTypeHeader = "event-type"

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

// Publish writes event as JSON. Messages are keyed by user id so that one
// shopper's events stay ordered on a single partition.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if ev, ok := event.(events.Event); ok {
		msg.Headers = []kafka.Header{{Key: EventTypeHeader, Value: []byte(ev.Type)}}
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
