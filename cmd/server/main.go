// Command server runs the postboard HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"

	"github.com/GetStream/postboard/api"
	"github.com/GetStream/postboard/api/validator"
	"github.com/GetStream/postboard/auth"
	"github.com/GetStream/postboard/board"
	"github.com/GetStream/postboard/config"
	"github.com/GetStream/postboard/memory"
	"github.com/GetStream/postboard/metrics"
	"github.com/GetStream/postboard/postgres"
	"github.com/GetStream/postboard/redis"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional env file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *envFile); err != nil {
		slog.Error("Server failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.DefaultSecret() {
		logger.Warn("Using the development SECRET_KEY")
	}

	db, closeDB, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	m := metrics.New()
	tokens := &auth.Tokens{
		Secret: []byte(cfg.SecretKey),
		TTL:    cfg.AccessTokenTTL,
		Users:  db,
		Logger: logger,
	}
	reactions := &board.Reactions{
		DB:     db,
		Posts:  db,
		Logger: logger,
		Events: m,
	}
	if cfg.RedisAddr != "" {
		cache, err := redis.Connect(ctx, cfg.RedisAddr, cfg.CountsTTL)
		if err != nil {
			return err
		}
		defer cache.Close()
		reactions.Cache = cache
		logger.Info("Caching reaction counts", "redis", cfg.RedisAddr)
	}

	a := &api.API{
		Logger: logger,
		Users: &board.Directory{
			DB:     db,
			Tokens: tokens,
			Logger: logger,
			Events: m,
		},
		Posts:     &board.Posts{DB: db},
		Reactions: reactions,
		Tokens:    tokens,
		DB:        db,
		Val:       validator.New(),
		Metrics:   m,
	}
	if cfg.LoginRateLimit > 0 {
		a.Limiter = api.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginBurst)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authorization", api.RequestIDHeader},
		ExposedHeaders: []string{api.RequestIDHeader},
		MaxAge:         300,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: c.Handler(a),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Addr, "storage", cfg.Storage)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore returns the configured row store and a function that releases
// it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (board.DB, func(), error) {
	if cfg.Storage == config.StorageMemory {
		logger.Info("Using in-memory storage")
		return memory.New(), func() {}, nil
	}

	pg, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.CreateSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	closeDB := func() {
		if cfg.DropSchemaOnShutdown {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := pg.DropSchema(ctx); err != nil {
				logger.Error("Could not drop schema", "error", err.Error())
			} else {
				logger.Info("Dropped schema")
			}
		}
		if err := pg.Close(); err != nil {
			logger.Error("Could not close database", "error", err.Error())
		}
	}
	return pg, closeDB, nil
}
