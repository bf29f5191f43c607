package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bookinsight/bookinsight/internal/config"
	"github.com/bookinsight/bookinsight/internal/dataset"
	"github.com/bookinsight/bookinsight/internal/db"
	dbRedis "github.com/bookinsight/bookinsight/internal/db/redis"
	"github.com/bookinsight/bookinsight/internal/domain"
	"github.com/bookinsight/bookinsight/internal/index"
	logpkg "github.com/bookinsight/bookinsight/internal/logger"
	"github.com/bookinsight/bookinsight/internal/metrics"
	"github.com/bookinsight/bookinsight/internal/repository/embcache"
	chiTransport "github.com/bookinsight/bookinsight/internal/transport/chi"
	openaiTransport "github.com/bookinsight/bookinsight/internal/transport/openai"
	healthuc "github.com/bookinsight/bookinsight/internal/usecase/health"
	"github.com/bookinsight/bookinsight/internal/usecase/qa"
	"github.com/bookinsight/bookinsight/internal/usecase/reason"
	reportuc "github.com/bookinsight/bookinsight/internal/usecase/report"
	"github.com/bookinsight/bookinsight/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bookinsight API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("dataset", cfg.Dataset.Path),
	)

	ctx := context.Background()

	// Optional embedding cache store
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store")
	}

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterQAMetrics()

	// Base embedding provider, optionally wrapped with the cache
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = baseEmbedder
	if store != nil {
		embedder = embcache.New(baseEmbedder, store, metrics.EmbeddingCacheTotal, logger)
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cached", store != nil),
	)

	// Dataset loads once; the service cannot start without it.
	ds, err := dataset.Load(cfg.Dataset.Path, logger)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	// Build the embedding index over per-record summaries.
	idx := index.New(embedder, logger)
	if err := idx.Build(ctx, ds.Bookings(), domain.Booking.Summary); err != nil {
		logger.Fatal("Failed to build embedding index", zap.Error(err))
	}

	// Generative reasoner with lazy once-only generator construction.
	genCfg := cfg.Generation
	reasoner := reason.New(func() (reason.Generator, error) {
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      genCfg.APIKey,
			BaseURL:     genCfg.BaseURL,
			Model:       genCfg.Model,
			MaxTokens:   genCfg.MaxTokens,
			Temperature: genCfg.Temperature,
			Provider:    genCfg.Provider,
			Logger:      logger,
		})
	}, time.Duration(genCfg.TimeoutSec)*time.Second, logger)

	// Use case services
	qaSvc := qa.New(ds, idx, reasoner, qa.NewCatalog(idx), logger)
	reportSvc := reportuc.New(ds)

	// Pass nil interface (not typed nil pointer!) when cache is not configured.
	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(ds, idx, cachePinger, baseEmbedder, qaSvc.Perf(), logger)

	// Create chi server
	server := chiTransport.NewServer(reportSvc, qaSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
