// Command dk-server starts the deck-keeper REST server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/deck-keeper/internal/config"
	"github.com/and161185/deck-keeper/internal/limiter"
	"github.com/and161185/deck-keeper/internal/migrate"
	"github.com/and161185/deck-keeper/internal/repository/postgres"
	"github.com/and161185/deck-keeper/internal/review"
	"github.com/and161185/deck-keeper/internal/server/rest"
	"github.com/and161185/deck-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	configFile := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	deckRepo := postgres.NewDeckRepo(db)
	cardRepo := postgres.NewCardRepo(db)
	resolver := postgres.NewResolver(db)

	lim := limiter.NewPG(pool, cfg.Limiter.ResetSpan, cfg.Limiter.MaxFails, cfg.Limiter.BlockFor)

	policy := &review.StepPolicy{
		Steps:              cfg.Review.LearningSteps,
		GraduatingInterval: cfg.Review.GraduatingInterval,
		EasyInterval:       cfg.Review.EasyInterval,
		GoodMultiplier:     cfg.Review.GoodMultiplier,
		HardMultiplier:     cfg.Review.HardMultiplier,
		EasyBonus:          cfg.Review.EasyBonus,
		LapseMultiplier:    cfg.Review.LapseMultiplier,
		MinInterval:        cfg.Review.MinInterval,
		MaxInterval:        cfg.Review.MaxInterval,
	}

	// Services
	authSvc := service.NewAuthService(userRepo, []byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL, lim)
	deckSvc := service.NewDeckService(deckRepo, resolver)
	cardSvc := service.NewCardService(cardRepo, deckRepo, resolver, policy)

	app := rest.New(authSvc, deckSvc, cardSvc, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
