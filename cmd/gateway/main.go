// Package main is the entry point for the modelbridge gateway server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UOACoder/modelbridge/internal/config"
	"github.com/UOACoder/modelbridge/internal/handler"
	"github.com/UOACoder/modelbridge/internal/security"
	"github.com/UOACoder/modelbridge/internal/ui"
)

func main() {
	// =========================================================================
	// 1. Setup structured logger (JSON format, credential-redacted)
	// =========================================================================
	logger := setupLogger()

	logger.Info("starting modelbridge gateway")

	// =========================================================================
	// 2. Load configuration (Singleton)
	// =========================================================================
	cfg, err := config.GetConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	providers := cfg.ConfiguredProviders()
	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Any("configured_providers", providers),
	)
	if len(providers) == 0 {
		logger.Warn("no provider credentials configured; every request will fail")
	}

	// =========================================================================
	// 3. Create ChatHandler with the resolved credentials
	// =========================================================================
	handlerOpts := []handler.ChatHandlerOption{
		handler.WithLogger(logger),
	}
	if cfg.Cache.Enabled {
		cache := handler.NewReplyCache(
			handler.WithCacheTTL(time.Duration(cfg.Cache.TTLSeconds)*time.Second),
			handler.WithCacheLogger(logger),
		)
		handlerOpts = append(handlerOpts, handler.WithCache(cache))
		logger.Info("reply cache enabled", slog.Int("ttl_seconds", cfg.Cache.TTLSeconds))
	}

	chatHandler := handler.NewChatHandler(cfg.ProviderCredentials(), handlerOpts...)

	// =========================================================================
	// 4. Setup Gin router with middleware
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.StripAuthHeadersMiddleware())
	router.Use(handler.LoggingMiddleware(logger))

	// Register routes (OpenAI-compatible)
	router.POST("/v1/chat/completions", chatHandler.HandleChatCompletion)
	router.GET("/v1/models", chatHandler.HandleModels)
	router.GET("/health", chatHandler.HandleHealth(cfg))

	// Also support without /v1 prefix for compatibility
	router.POST("/chat/completions", chatHandler.HandleChatCompletion)

	// =========================================================================
	// 5. Start HTTP server with graceful shutdown
	// =========================================================================
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("address", addr))
		ui.PrintBanner()
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, providers)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// =========================================================================
	// 6. Graceful shutdown on SIGTERM/SIGINT
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
}

// setupLogger creates a structured JSON logger that masks credential values
// before any record is written.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo

	if envLevel := os.Getenv("MODELBRIDGE_LOGGING_LEVEL"); envLevel != "" {
		switch envLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	inner := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(security.NewRedactedHandler(inner))

	slog.SetDefault(logger)

	return logger
}
