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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aldermoor/braindex/internal/chunker"
	"github.com/aldermoor/braindex/internal/config"
	dbRedis "github.com/aldermoor/braindex/internal/db/redis"
	logpkg "github.com/aldermoor/braindex/internal/logger"
	"github.com/aldermoor/braindex/internal/metrics"
	chunkrepo "github.com/aldermoor/braindex/internal/repository/chunk"
	convrepo "github.com/aldermoor/braindex/internal/repository/conversation"
	chiTransport "github.com/aldermoor/braindex/internal/transport/chi"
	"github.com/aldermoor/braindex/internal/transport/ollama"
	openaiClient "github.com/aldermoor/braindex/internal/transport/openai"
	chatuc "github.com/aldermoor/braindex/internal/usecase/chat"
	ingestuc "github.com/aldermoor/braindex/internal/usecase/ingest"
	registryuc "github.com/aldermoor/braindex/internal/usecase/registry"
	"github.com/aldermoor/braindex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting braindex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Vector corpus store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create corpus store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Corpus store not ready", zap.Error(err))
	}
	logger.Info("Connected to corpus store")

	// Conversation store
	pool, err := convrepo.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.Fatal("Failed to connect to conversation store", zap.Error(err))
	}
	defer pool.Close()

	conversations := convrepo.New(pool)
	if err := conversations.InitSchema(ctx); err != nil {
		logger.Fatal("Failed to init conversation schema", zap.Error(err))
	}
	logger.Info("Connected to conversation store")

	// Register model-host metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	chunks := chunkrepo.New(store, cfg.LLM.Dimensions).WithHNSW(chunkrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := chunks.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure corpus index", zap.Error(err))
	}
	if n, err := chunks.Count(ctx); err == nil {
		logger.Info("Corpus index ready", zap.Int("chunks", n))
	}

	// Model host clients
	llmCfg := &openaiClient.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.EmbeddingModel,
		Logger:  logger,
	}
	embedder := openaiClient.NewEmbedder(llmCfg)
	generator := openaiClient.NewGenerator(llmCfg)
	puller := ollama.New(cfg.LLM.HostURL, nil)

	logger.Info("Model host clients created",
		zap.String("base_url", cfg.LLM.BaseURL),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
		zap.Int("dimensions", cfg.LLM.Dimensions),
	)

	// Use case services
	splitter := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)

	ingestSvc := ingestuc.New(splitter, embedder, chunks, ingestuc.Timeouts{
		Embed: time.Duration(cfg.LLM.EmbedTimeoutSec) * time.Second,
		Store: time.Duration(cfg.LLM.StoreTimeoutSec) * time.Second,
	})

	chatSvc := chatuc.New(conversations, chunks, embedder, generator,
		chatuc.NewTemplate(cfg.Prompt.Template),
		chatuc.Options{
			TopK:         cfg.Retrieval.TopK,
			HistoryLimit: cfg.Retrieval.HistoryLimit,
			Timeouts: chatuc.Timeouts{
				Embed:    time.Duration(cfg.LLM.EmbedTimeoutSec) * time.Second,
				Generate: time.Duration(cfg.LLM.GenerateTimeoutSec) * time.Second,
				Store:    time.Duration(cfg.LLM.StoreTimeoutSec) * time.Second,
			},
		})

	registrySvc := registryuc.New(generator, puller, cfg.LLM.EmbeddingModel)

	// HTTP server
	server := chiTransport.NewServer(chatSvc, ingestSvc, registrySvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Get("/healthz", healthHandler(store, pool, embedder))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

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

// pinger is anything whose connectivity the health endpoint verifies.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthChecker verifies the model host responds.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthHandler reports readiness of both backing stores and the model host.
func healthHandler(corpus, conversations pinger, host healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"corpus": "ok", "conversations": "ok", "model_host": "ok"}
		status := http.StatusOK
		if err := corpus.Ping(ctx); err != nil {
			checks["corpus"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if err := conversations.Ping(ctx); err != nil {
			checks["conversations"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if err := host.HealthCheck(ctx); err != nil {
			checks["model_host"] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(checks)
	}
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
