package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/MJE43/pf-casino-engine/internal/api"
	"github.com/MJE43/pf-casino-engine/internal/audit"
	"github.com/MJE43/pf-casino-engine/internal/config"
	"github.com/MJE43/pf-casino-engine/internal/ledger"
	"github.com/MJE43/pf-casino-engine/internal/scan"
	"github.com/MJE43/pf-casino-engine/internal/session"
	"github.com/MJE43/pf-casino-engine/internal/store"
	"github.com/MJE43/pf-casino-engine/internal/store/kv"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

type natsHealth struct{ conn *nats.Conn }

func (n natsHealth) Ping(context.Context) error {
	if status := n.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats %s", status)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	balances, err := cfg.Ledger.Balances()
	if err != nil {
		return err
	}
	wallet := ledger.WithRetry(ledger.NewMemory(balances), ledger.RetryConfig{
		MaxRetries:   cfg.Ledger.MaxRetries,
		BaseInterval: cfg.Ledger.RetryBase,
		MaxInterval:  cfg.Ledger.RetryMax,
		Logger:       log,
	})

	sinks := audit.Multi{audit.NewLog(log)}
	opts := []api.Option{
		api.WithLogger(log),
		api.WithRequestTimeout(cfg.Server.RequestTimeout),
	}

	var rounds session.RoundStore
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := store.NewSQLite(cfg.Store.Path, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		rounds = db
		sinks = append(sinks, db)
		opts = append(opts, api.WithRunStore(db), api.WithHealthCheck("sqlite", db))
	case "badger":
		kvs, err := kv.Open(cfg.Store.Path, "casino")
		if err != nil {
			return err
		}
		defer kvs.Close()
		rounds = kvs
	default:
		log.Warn("using the in-memory round store, rounds are lost on exit")
		rounds = session.NewMemoryStore()
	}

	if cfg.NATS.Enabled() {
		nc, err := audit.Connect(cfg.NATS.URL, log)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		sinks = append(sinks, audit.NewNATS(nc, cfg.NATS.SubjectPrefix, log))
		opts = append(opts, api.WithHealthCheck("nats", natsHealth{nc}))
	}

	mgr := session.NewManager(rounds, wallet, sinks, session.WithLogger(log))
	scanner := scan.NewScanner(scan.Config{
		Workers:       cfg.Scan.Workers,
		BatchSize:     cfg.Scan.BatchSize,
		EngineVersion: api.EngineVersion,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(mgr, scanner, opts...).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "version", api.EngineVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
