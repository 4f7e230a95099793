// Command budget-devserver serves the budget tracker REST API for local
// development and end-to-end tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgettracker/budget-tracker/internal/api"
	"github.com/budgettracker/budget-tracker/internal/core/ports"
	"github.com/budgettracker/budget-tracker/internal/core/service"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/db/memory"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/db/mongo"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/db/postgres"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/db/redis"
	"github.com/budgettracker/budget-tracker/internal/infrastructure/http/handlers"
	"github.com/budgettracker/budget-tracker/internal/pkg/config"
	"github.com/budgettracker/budget-tracker/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type stores struct {
	accounts     ports.AccountRepository
	transactions ports.TransactionRepository
	ready        map[string]handlers.Pinger
	close        func(context.Context) error
}

func run(ctx context.Context) error {
	config.LoadDotEnv()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "budget-devserver",
	})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close stores")
		}
	}()

	e := api.NewRouter(api.Deps{
		Auth:      service.NewAuthService(st.accounts, cfg.JWTSecret, cfg.TokenTTL),
		Ledger:    service.NewLedgerService(st.transactions, logger.For("ledger")),
		JWTSecret: cfg.JWTSecret,
		Log:       logger.For("http"),
		Ready:     st.ready,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting budget devserver")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

func openStores(ctx context.Context, cfg *config.ServerConfig, log zerolog.Logger) (*stores, error) {
	st := &stores{
		ready: make(map[string]handlers.Pinger),
		close: func(context.Context) error { return nil },
	}

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		st.accounts, st.transactions = store.Accounts, store.Transactions
		st.ready["postgres"] = store
		st.close = func(context.Context) error {
			pool.Close()
			return nil
		}
	case config.StoreMongo:
		client, db, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		store := mongo.NewStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		st.accounts, st.transactions = store.Accounts, store.Transactions
		st.ready["mongodb"] = store
		st.close = client.Disconnect
	default:
		store := memory.NewStore()
		st.accounts, st.transactions = store.Accounts, store.Transactions
		st.ready["memory"] = store
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable at startup")
			st.ready["redis"] = handlers.PingFunc(func(context.Context) error { return err })
		} else {
			closeStore := st.close
			st.ready["redis"] = handlers.PingFunc(func(ctx context.Context) error {
				return redis.Ping(ctx, rdb)
			})
			st.close = func(ctx context.Context) error {
				return errors.Join(rdb.Close(), closeStore(ctx))
			}
		}
	}

	log.Debug().Str("store", cfg.Store).Int("probes", len(st.ready)).Msg("stores opened")
	return st, nil
}
