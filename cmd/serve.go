package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/simonvc/bookkeeper/internal/cache"
	"github.com/simonvc/bookkeeper/internal/engine"
	"github.com/simonvc/bookkeeper/internal/observability"
	"github.com/simonvc/bookkeeper/internal/server"
	"github.com/simonvc/bookkeeper/internal/store"
	"github.com/spf13/cobra"
)

var serveAddr string

// stack is a running store, cache and server built from the config.
type stack struct {
	store  *store.Store
	cache  *cache.Cache
	server *server.Server
}

func (s *stack) Close() {
	s.cache.Close()
	s.store.Close()
}

func buildStack(ctx context.Context, log zerolog.Logger, addr string) (*stack, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var c *cache.Cache
	if cfg.Cache.RedisAddr != "" {
		c, err = cache.Dial(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTLDuration())
		if err != nil {
			st.Close()
			return nil, err
		}
		st.OnChange(func(ctx context.Context, ownerID string) {
			if err := c.Bump(ctx, ownerID); err != nil {
				log.Warn().Err(err).Str("owner", ownerID).Msg("report cache bump failed")
			}
		})
		log.Info().Str("redis", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTLDuration()).Msg("report cache enabled")
	}

	metrics := observability.NewMetrics()
	eng := engine.New(st,
		engine.WithCache(c),
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
		engine.WithRecorder(metrics),
	)
	srv := server.New(st, eng, server.Options{
		Addr:           addr,
		ReadTimeout:    cfg.Server.ReadTimeoutDuration(),
		WriteTimeout:   cfg.Server.WriteTimeoutDuration(),
		RequestTimeout: cfg.Server.RequestTimeoutDuration(),
		RateLimit:      cfg.Server.RateLimit,
		Dev:            cfg.Server.Dev,
		Logger:         log.With().Str("component", "http").Logger(),
		Metrics:        metrics,
	})
	return &stack{store: st, cache: c, server: srv}, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stk, err := buildStack(ctx, log, addr)
		if err != nil {
			return err
		}
		defer stk.Close()

		errCh := make(chan error, 1)
		go func() { errCh <- stk.server.ListenAndServe() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return stk.server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8888", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
