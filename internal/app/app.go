// Package app assembles the services shared by the API server and the
// terminal UI from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/config"
	"github.com/MrJamesThe3rd/tripwise/internal/database"
	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/export"
	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	"github.com/MrJamesThe3rd/tripwise/internal/kv/memory"
	kvpostgres "github.com/MrJamesThe3rd/tripwise/internal/kv/postgres"
	kvredis "github.com/MrJamesThe3rd/tripwise/internal/kv/redis"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	policyStore "github.com/MrJamesThe3rd/tripwise/internal/policy/store"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/progress"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
	txStore "github.com/MrJamesThe3rd/tripwise/internal/transaction/store"
	"github.com/MrJamesThe3rd/tripwise/internal/wizard"
)

type App struct {
	Calculator   *premium.Calculator
	Auth         *auth.Service
	Tokens       *auth.TokenIssuer
	Transactions *transaction.Service
	Policies     *policy.Service
	Documents    *document.Service
	Wizard       *wizard.Controller
	Export       *export.Service
	Metrics      *metrics.Metrics

	closers []func() error
}

// New connects the configured stores and builds every service. Close
// releases the connections.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Metrics: metrics.New()}

	table := premium.DefaultTable()

	if cfg.Pricing.RatesFile != "" {
		t, err := premium.LoadTable(cfg.Pricing.RatesFile)
		if err != nil {
			return nil, err
		}

		table = t
		slog.Info("loaded rate overrides", "file", cfg.Pricing.RatesFile)
	}

	a.Calculator = premium.NewCalculator(table)

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	blobs, err := openDocuments(ctx, cfg, store)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth, err = auth.NewService(store, auth.Credentials{
		Email:    cfg.Auth.Email,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	}, auth.WithMirror(memory.New()))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Tokens = auth.NewTokenIssuer(cfg.Auth.SigningKey, cfg.Auth.TokenTTL)
	a.Transactions = transaction.NewService(txStore.New(store))
	a.Policies = policy.NewService(policyStore.New(store), a.Transactions)
	a.Documents = document.NewService(blobs)
	a.Wizard = wizard.NewController(a.Auth, a.Policies, a.Documents, progress.New[wizard.Draft](store), a.Calculator)
	a.Export = export.NewService(a.Policies, a.Documents, a.Calculator)

	expired, err := a.Policies.ExpireDue(ctx, time.Now())
	if err != nil {
		slog.Error("failed to expire policies", "error", err)
	} else if len(expired) > 0 {
		slog.Info("expired policies", "count", len(expired))
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.New(ctx, cfg.ConnectionString(), database.Pool{
			MaxOpen:     cfg.DB.MaxOpen,
			MaxIdle:     cfg.DB.MaxIdle,
			MaxLifetime: cfg.DB.MaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		a.closers = append(a.closers, db.Close)

		s := kvpostgres.New(db)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}

		return s, nil
	case config.StoreRedis:
		client, err := kvredis.Connect(ctx, kvredis.Options{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		a.closers = append(a.closers, client.Close)

		return kvredis.New(client, cfg.Redis.Prefix), nil
	}

	slog.Warn("using in-memory store, data is lost on exit")

	return memory.New(), nil
}

func openDocuments(ctx context.Context, cfg *config.Config, store kv.Store) (document.Store, error) {
	if cfg.Documents.Driver != config.DocumentsMinIO {
		return document.NewKVStore(store), nil
	}

	s, err := document.NewMinIOStore(ctx, document.MinIOConfig{
		Endpoint:  cfg.Documents.Endpoint,
		AccessKey: cfg.Documents.AccessKey,
		SecretKey: cfg.Documents.SecretKey,
		Bucket:    cfg.Documents.Bucket,
		Region:    cfg.Documents.Region,
		UseSSL:    cfg.Documents.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object storage: %w", err)
	}

	return s, nil
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}

	a.closers = nil

	return errors.Join(errs...)
}
