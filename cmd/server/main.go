package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/handlers"
	"github.com/margdarshan-ai/margdarshan/internal/i18n"
	"github.com/margdarshan-ai/margdarshan/internal/middleware"
	"github.com/margdarshan-ai/margdarshan/internal/ratelimit"
	"github.com/margdarshan-ai/margdarshan/internal/services/ai"
	"github.com/margdarshan-ai/margdarshan/internal/services/cache"
	"github.com/margdarshan-ai/margdarshan/internal/services/identity"
	"github.com/margdarshan-ai/margdarshan/internal/store"
	"github.com/margdarshan-ai/margdarshan/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		// It's okay if .env doesn't exist
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting Margdarshan API server...")

	storageManager, err := store.NewManager(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Resolve the model once at startup; the selection stays fixed for the
	// process lifetime.
	aiClient := ai.NewClient(&cfg.AI, log)
	resolveCtx, cancelResolve := context.WithTimeout(context.Background(), 15*time.Second)
	if err := aiClient.ResolveModel(resolveCtx, cfg.AI.FallbackModels); err != nil {
		cancelResolve()
		log.WithError(err).Fatal("Failed to resolve generation model")
	}
	cancelResolve()
	log.WithField("model", aiClient.Model()).Info("Generation model resolved")

	identityProvider := identity.NewProvider(&cfg.Auth, storageManager, log)
	responseCache := cache.NewCache(&cfg.Cache, storageManager, log)
	limiter := ratelimit.NewLimiter(&cfg.RateLimit, storageManager, log)

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	metrics := middleware.NewMetrics()
	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	handler := handlers.NewHandler(
		cfg,
		storageManager,
		identityProvider,
		limiter,
		responseCache,
		aiClient,
		localizer,
		metrics,
		log,
	)

	ipLimiter := middleware.NewIPLimiter(&cfg.RateLimit.IP, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Router(ipLimiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}

	log.Info("Server stopped")
}
