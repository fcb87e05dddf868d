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
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/coinbag/internal/backend"
	"github.com/MrJamesThe3rd/coinbag/internal/config"
	coinbagHttp "github.com/MrJamesThe3rd/coinbag/internal/http"
	"github.com/MrJamesThe3rd/coinbag/internal/http/auth"
	insightsHandler "github.com/MrJamesThe3rd/coinbag/internal/http/insights"
	portfolioHandler "github.com/MrJamesThe3rd/coinbag/internal/http/portfolio"
	refreshHandler "github.com/MrJamesThe3rd/coinbag/internal/http/refresh"
	txHandler "github.com/MrJamesThe3rd/coinbag/internal/http/transaction"
	"github.com/MrJamesThe3rd/coinbag/internal/insights"
	"github.com/MrJamesThe3rd/coinbag/internal/logging"
	"github.com/MrJamesThe3rd/coinbag/internal/notify"
	"github.com/MrJamesThe3rd/coinbag/internal/portfolio"
	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.SlogLevel(), cfg.App.LogFormat)
	slog.SetDefault(logger)

	if *issueFor != "" {
		if err := issueToken(cfg, *issueFor, *tokenTTL); err != nil {
			logger.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func issueToken(cfg *config.Config, subject string, ttl time.Duration) error {
	if cfg.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	token, err := auth.NewVerifier(cfg.Server.JWTSecret).Issue(subject, ttl, time.Now())
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := backend.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	store := syncstore.New(be.Remote, be.Cache, syncstore.WithLogger(logger))

	if err := store.Load(ctx); err != nil {
		if !errors.Is(err, syncstore.ErrCacheCorrupt) {
			return err
		}

		// A server has nobody to ask; rebuild from the remote.
		logger.Warn("cached snapshot is corrupt, discarding", "error", err)

		if err := store.Discard(ctx); err != nil {
			return err
		}
	}

	insightsSvc := insights.NewService(store, cfg.Insights.CacheSize, cfg.Insights.CacheTTL)

	if cfg.AMQP.URL != "" {
		stopAMQP, err := startAMQP(ctx, cfg, store, logger)
		if err != nil {
			logger.Warn("failed to initialize AMQP, continuing without notifications", "error", err)
		} else {
			defer stopAMQP()
		}
	}

	var poller *syncstore.Poller

	if cfg.Sync.PollInterval > 0 {
		poller = syncstore.NewPoller(store, syncstore.PollerConfig{
			Interval:  cfg.Sync.PollInterval,
			Mode:      syncstore.ModeIncremental,
			FullEvery: cfg.Sync.FullEvery,
		})

		if err := poller.Start(ctx); err != nil {
			return err
		}
	}

	go sweepInsights(ctx, insightsSvc, cfg.Insights.CacheTTL)

	opts := coinbagHttp.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	if cfg.Server.JWTSecret != "" {
		opts.Verifier = auth.NewVerifier(cfg.Server.JWTSecret)
	}

	if be.Portfolio != nil {
		opts.Portfolio = portfolioHandler.NewHandler(portfolio.NewService(be.Portfolio, cfg.Portfolio.CacheTTL))
	}

	router := coinbagHttp.New(
		txHandler.NewHandler(store),
		refreshHandler.NewHandler(store),
		insightsHandler.NewHandler(insightsSvc),
		opts,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "remote", cfg.Remote.Kind, "auth", opts.Verifier != nil)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if poller != nil {
		if err := poller.Stop(shutdownCtx); err != nil {
			logger.Error("poller shutdown error", "error", err)
		}
	}

	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store shutdown error", "error", err)
	}

	logger.Info("server stopped gracefully")

	return nil
}

// startAMQP publishes commits and consumes refresh requests until ctx is done.
func startAMQP(ctx context.Context, cfg *config.Config, store *syncstore.Store, logger *slog.Logger) (func(), error) {
	client, err := notify.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
	if err != nil {
		return nil, err
	}

	publisher := client.Publisher(logger)

	sub, err := store.Subscribe(publisher.Observe)
	if err != nil {
		client.Close()
		return nil, err
	}

	go publisher.Run(ctx)

	go func() {
		err := client.ConsumeRefreshRequests(ctx, notify.NewRefreshHandler(store, logger))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh request consumer stopped", "error", err)
		}
	}()

	logger.Info("initialized AMQP", "exchange", cfg.AMQP.Exchange, "queue", cfg.AMQP.Queue)

	return func() {
		sub.Unsubscribe()
		client.Close()
	}, nil
}

func sweepInsights(ctx context.Context, svc *insights.Service, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.CleanExpired(); n > 0 {
				slog.Debug("dropped expired insight reports", "count", n)
			}
		}
	}
}
