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

	"github.com/kailas-cloud/bitsync/internal/config"
	dbRedis "github.com/kailas-cloud/bitsync/internal/db/redis"
	"github.com/kailas-cloud/bitsync/internal/fixtures"
	logpkg "github.com/kailas-cloud/bitsync/internal/logger"
	"github.com/kailas-cloud/bitsync/internal/metrics"
	"github.com/kailas-cloud/bitsync/internal/repository/catalog"
	"github.com/kailas-cloud/bitsync/internal/repository/synthetic"
	chiTransport "github.com/kailas-cloud/bitsync/internal/transport/chi"
	exploreuc "github.com/kailas-cloud/bitsync/internal/usecase/explore"
	healthuc "github.com/kailas-cloud/bitsync/internal/usecase/health"
	reposuc "github.com/kailas-cloud/bitsync/internal/usecase/repos"
	searchuc "github.com/kailas-cloud/bitsync/internal/usecase/search"
	"github.com/kailas-cloud/bitsync/internal/version"
	"github.com/kailas-cloud/bitsync/pkg/api"
)

// backend is everything the use cases need from a data source.
type backend interface {
	searchuc.Source
	exploreuc.Browser
	reposuc.Store
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bitsync API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Health checks stay nil interfaces for the synthetic driver.
	// Go gotcha: (*dbRedis.Store)(nil) wrapped in DBPinger != nil.
	var (
		source  backend
		pinger  healthuc.DBPinger
		indexes healthuc.IndexChecker
	)
	switch cfg.Database.Driver {
	case config.DriverSynthetic:
		source = synthetic.New(synthetic.WithLatency(cfg.Search.SimulatedLatency()))
		logger.Info("Using synthetic data source",
			zap.Duration("simulated_latency", cfg.Search.SimulatedLatency()),
		)
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:             cfg.Database.Addrs,
			Username:          cfg.Database.Username,
			Password:          cfg.Database.Password,
			DB:                cfg.Database.DB,
			DialTimeout:       cfg.Database.DialTimeout(),
			DisableTextSearch: cfg.Database.Driver == config.DriverValkey,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		cat := catalog.New(store, cfg.Storage.KeyPrefix)
		if err := cat.EnsureIndexes(ctx); err != nil {
			logger.Fatal("Failed to create search indexes", zap.Error(err))
		}
		if cfg.Database.SeedFile != "" {
			if err := fixtures.Apply(ctx, cat, cfg.Database.SeedFile, logger); err != nil {
				logger.Fatal("Failed to load fixtures", zap.Error(err))
			}
		}
		source, pinger, indexes = cat, store, cat
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Create use case services
	searchSvc := searchuc.New(source, logger, searchuc.WithTimeout(cfg.Search.Timeout()))
	exploreSvc := exploreuc.New(source)
	reposSvc := reposuc.New(source)
	healthSvc := healthuc.New(pinger, indexes, healthuc.WithCheckTimeout(cfg.Database.HealthTimeout()))

	// Create chi server
	server := chiTransport.NewServer(searchSvc, exploreSvc, reposSvc, healthSvc, logger).
		WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)

	var limiter *chiTransport.RateLimiter
	if cfg.Search.RateLimitRPS > 0 {
		limiter = chiTransport.NewRateLimiter(cfg.Search.RateLimitRPS, cfg.Search.RateLimitBurst)
	}

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(chiTransport.RateLimitMiddleware(limiter))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{
				Code:    api.ErrorCodeBadRequest,
				Message: err.Error(),
			})
		},
	})

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
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(api.ErrorResponse{
						Code:    api.ErrorCodeInternalError,
						Message: "internal error",
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
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request. The query string is logged
			// because search terms are what operators debug.
			reqLogger.Info("http_request", append([]zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			}, logpkg.Annotations(ctx)...)...)
		})
	}
}
