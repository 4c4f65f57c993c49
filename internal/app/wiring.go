// Package app opens the backends named in the configuration. It is shared
// by the API server and the shopctl tool.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/example/brownie-shop/internal/config"
	"github.com/example/brownie-shop/internal/infrastructure/store"
	"github.com/example/brownie-shop/internal/mirror"
)

// Closer releases a backend. It is never nil.
type Closer func() error

func nop() error { return nil }

// OpenGateway connects to the configured gateway. The postgres driver also
// creates its tables.
func OpenGateway(ctx context.Context, cfg config.GatewayConfig) (store.Gateway, Closer, error) {
	switch cfg.Driver {
	case "http":
		log.Printf("[App] Gateway: %s (timeout %s)", cfg.BaseURL, cfg.Timeout)
		return store.NewHTTPGateway(cfg.BaseURL, cfg.Timeout).Gateway(), nop, nil
	case "postgres":
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return store.Gateway{}, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return store.Gateway{}, nil, fmt.Errorf("failed to create schema: %w", err)
		}
		log.Println("[App] Gateway: PostgreSQL")
		return store.NewPostgresGateway(db).Gateway(), db.Close, nil
	}
	return store.Gateway{}, nil, fmt.Errorf("%w: unknown gateway driver %q", config.ErrInvalidConfig, cfg.Driver)
}

// Mirror is an open session mirror. Pruner is set when the backend needs
// explicit expiry; Redis expires keys itself.
type Mirror struct {
	Store  mirror.Store
	Pruner *mirror.SQLite
	Close  Closer
}

// OpenMirror opens the configured session mirror.
func OpenMirror(ctx context.Context, cfg config.MirrorConfig) (*Mirror, error) {
	switch cfg.Driver {
	case "memory":
		log.Println("[App] Session mirror: in-process memory (lost on restart)")
		return &Mirror{Store: mirror.NewMemory(), Close: nop}, nil
	case "redis":
		r, err := mirror.NewRedis(cfg.RedisURL, cfg.Prefix, cfg.TTL)
		if err != nil {
			return nil, err
		}
		log.Printf("[App] Session mirror: Redis (ttl %s)", cfg.TTL)
		return &Mirror{Store: r, Close: r.Close}, nil
	case "sqlite":
		s, err := mirror.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("[App] Session mirror: SQLite at %s", cfg.SQLitePath)
		return &Mirror{Store: s, Pruner: s, Close: s.Close}, nil
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
			}
		})
		log.Printf("[App] Session mirror: DynamoDB table %s (ttl %s)", cfg.DynamoTable, cfg.TTL)
		return &Mirror{Store: mirror.NewDynamo(client, cfg.DynamoTable, cfg.Prefix, cfg.TTL), Close: nop}, nil
	}
	return nil, fmt.Errorf("%w: unknown mirror driver %q", config.ErrInvalidConfig, cfg.Driver)
}
