package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/brownie-shop/internal/account"
	"github.com/example/brownie-shop/internal/admin"
	"github.com/example/brownie-shop/internal/api"
	"github.com/example/brownie-shop/internal/app"
	"github.com/example/brownie-shop/internal/auth"
	"github.com/example/brownie-shop/internal/checkout"
	"github.com/example/brownie-shop/internal/config"
	"github.com/example/brownie-shop/internal/events"
	"github.com/example/brownie-shop/internal/guard"
	"github.com/example/brownie-shop/internal/infrastructure/kafka"
	"github.com/example/brownie-shop/internal/search"
	"github.com/example/brownie-shop/internal/session"
)

// evictInterval is how often idle sessions are dropped from memory.
const evictInterval = 10 * time.Minute

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Brownie Shop")
	log.Println("[API] ========================================")

	gw, closeGateway, err := app.OpenGateway(ctx, cfg.Gateway)
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	defer closeGateway()

	m, err := app.OpenMirror(ctx, cfg.Mirror)
	if err != nil {
		log.Fatalf("[API] %v", err)
	}
	defer m.Close()

	// Domain events are optional: without brokers they are dropped.
	var publisher events.Publisher
	if cfg.EventsEnabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v (topic %s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		log.Println("[API] Kafka: disabled, domain events are dropped")
	}
	emitter := events.NewEmitter(publisher)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	sessions := session.NewManager(m.Store)
	g := guard.New(gw.Blocks, emitter)

	router := api.NewRouter(api.RouterConfig{
		Handlers:      api.NewHandlers(search.NewCatalog(gw.Products), checkout.NewService(gw.Users, emitter)),
		AuthHandlers:  api.NewAuthHandlers(account.NewService(gw.Users, g, emitter)),
		AdminHandlers: api.NewAdminHandlers(admin.NewService(gw, g, emitter)),
		JWTService:    jwtService,
		Sessions:      sessions,
		SecureCookie:  cfg.Auth.SecureCookie,
		WebDir:        os.Getenv("WEB_DIR"),
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runHousekeeping(ctx, sessions, m, cfg)
	}()

	// Start HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}

	wg.Wait()
}

// runHousekeeping drops idle sessions from memory and prunes the SQLite
// mirror. Evicted sessions can still be restored from the mirror.
func runHousekeeping(ctx context.Context, sessions *session.Manager, m *app.Mirror, cfg *config.Config) {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Evict(now.Add(-evictInterval)); n > 0 {
				log.Printf("[API] Evicted %d idle sessions", n)
			}
			if m.Pruner == nil {
				continue
			}
			n, err := m.Pruner.Prune(ctx, now.Add(-cfg.Mirror.TTL))
			if err != nil {
				log.Printf("[API] Failed to prune session mirror: %v", err)
			} else if n > 0 {
				log.Printf("[API] Pruned %d mirrored session keys", n)
			}
		}
	}
}
