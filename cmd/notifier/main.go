package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/brownie-shop/internal/config"
	"github.com/example/brownie-shop/internal/email"
	"github.com/example/brownie-shop/internal/infrastructure/kafka"
	"github.com/example/brownie-shop/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Read(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[Notifier] %v", err)
	}
	if !cfg.EventsEnabled() {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Brownie Shop - Order Email Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", cfg.Kafka.Brokers)
	log.Printf("[Notifier] Topic: %s", cfg.Kafka.Topic)
	log.Printf("[Notifier] Group: %s", cfg.Kafka.NotifierGroup)
	log.Printf("[Notifier] SMTP: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)
	log.Printf("[Notifier] From: %s", cfg.SMTP.From)

	// Order events carry the recipient, so no database is needed.
	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.NotifierGroup)
	defer consumer.Close()

	go func() {
		log.Printf("[Notifier] Listening to topic: %s", cfg.Kafka.Topic)
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}
