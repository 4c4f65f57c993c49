// Package msk adapts Lambda Kafka triggers (Amazon MSK or self-managed
// Kafka) to the key/value messages the notification handler consumes.
package msk

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/aws/aws-lambda-go/events"
)

// Message is one decoded Kafka record.
type Message struct {
	Topic     string
	Partition int64
	Offset    int64
	Key       []byte
	Value     []byte
}

// ID names the record in logs.
func (m Message) ID() string {
	return fmt.Sprintf("%s-%d@%d", m.Topic, m.Partition, m.Offset)
}

// ConvertFromKafkaRecord decodes the base64 key and value Lambda delivers.
func ConvertFromKafkaRecord(record events.KafkaRecord) (*Message, error) {
	value, err := base64.StdEncoding.DecodeString(record.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	var key []byte
	if record.Key != "" {
		key, err = base64.StdEncoding.DecodeString(record.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key: %w", err)
		}
	}

	return &Message{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Key:       key,
		Value:     value,
	}, nil
}

// BatchConvertFromKafkaEvent converts all records from a Kafka event.
// Partitions are visited in name order and records keep their offset order
// within a partition. Returns the converted messages and any errors.
func BatchConvertFromKafkaEvent(kafkaEvent events.KafkaEvent) ([]*Message, []error) {
	partitions := make([]string, 0, len(kafkaEvent.Records))
	for p := range kafkaEvent.Records {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	var messages []*Message
	var errs []error
	for _, p := range partitions {
		for _, record := range kafkaEvent.Records[p] {
			msg, err := ConvertFromKafkaRecord(record)
			if err != nil {
				errs = append(errs, fmt.Errorf("record %s@%d: %w", p, record.Offset, err))
				continue
			}
			messages = append(messages, msg)
		}
	}
	return messages, errs
}
