package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/brownie-shop/internal/config"
	"github.com/example/brownie-shop/internal/email"
	"github.com/example/brownie-shop/internal/infrastructure/msk"
	"github.com/example/brownie-shop/internal/notification"
)

var notificationHandler *notification.Handler

func init() {
	cfg, err := config.Read(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[Lambda Notifier] %v", err)
	}

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	notificationHandler = notification.NewHandler(emailSvc)

	log.Printf("[Lambda Notifier] Initialized successfully (SMTP: %s:%s)", cfg.SMTP.Host, cfg.SMTP.Port)
}

// handler processes a batch from a Kafka event source mapping. Failed
// records are logged and skipped like in the long-running notifier; the
// batch is retried only when nothing in it could be delivered.
func handler(ctx context.Context, kafkaEvent events.KafkaEvent) error {
	messages, convErrs := msk.BatchConvertFromKafkaEvent(kafkaEvent)
	for _, err := range convErrs {
		log.Printf("[Lambda Notifier] Skipping record: %v", err)
	}
	log.Printf("[Lambda Notifier] Received %d records", len(messages)+len(convErrs))

	failed := 0
	for _, msg := range messages {
		if err := notificationHandler.HandleEvent(ctx, msg.Key, msg.Value); err != nil {
			log.Printf("[Lambda Notifier] Failed to process %s: %v", msg.ID(), err)
			failed++
		}
	}

	log.Printf("[Lambda Notifier] Processed %d/%d records successfully", len(messages)-failed, len(messages))
	if len(messages) > 0 && failed == len(messages) {
		return fmt.Errorf("all %d records failed", failed)
	}
	return nil
}

func main() {
	lambda.Start(handler)
}
