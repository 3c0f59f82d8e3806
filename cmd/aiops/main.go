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

	"github.com/redis/go-redis/v9"

	"github.com/hexabase/hexabase-ai/internal/audit"
	"github.com/hexabase/hexabase-ai/internal/auth"
	"github.com/hexabase/hexabase-ai/internal/cluster"
	"github.com/hexabase/hexabase-ai/internal/config"
	"github.com/hexabase/hexabase-ai/internal/llm"
	"github.com/hexabase/hexabase-ai/internal/orchestrator"
	"github.com/hexabase/hexabase-ai/internal/server"
	"github.com/hexabase/hexabase-ai/internal/session"
	"github.com/hexabase/hexabase-ai/internal/tools"
	"github.com/hexabase/hexabase-ai/internal/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting", "version", version.Version, "addr", cfg.Server.Addr)

	clusterClient := cluster.New(cfg.Cluster.BaseURL, cluster.WithTimeout(cfg.Cluster.Timeout))

	registry, err := tools.NewRegistry(clusterClient)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	llmClient := llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, llm.WithTimeout(cfg.LLM.Timeout))
	resolver := orchestrator.NewResolver(llmClient, registry)

	auditStore, err := audit.Open(cfg.Audit.DataDir)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer func() { _ = auditStore.Close() }()

	orch := orchestrator.New(resolver, orchestrator.NewExecutor(), registry, auditStore)

	var sessions *session.Store
	if cfg.Session.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer func() { _ = redisClient.Close() }()
		sessions = session.NewStore(redisClient, cfg.Session.TTL)
	} else {
		logger.Warn("session store disabled: no redis address configured")
	}

	keys := auth.NewKeySource(cfg.Auth.JWKSURL)
	validator := auth.NewValidator(keys, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.MaxTokenAge)

	srv := server.New(orch, clusterClient, sessions, validator, keys, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}
