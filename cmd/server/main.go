package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/cache"
	"github.com/helpdesk-ai/triage-backend/internal/config"
	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/db"
	httpapi "github.com/helpdesk-ai/triage-backend/internal/http"
	"github.com/helpdesk-ai/triage-backend/internal/knowledge"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
)

const hashEmbeddingDims = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "triage-backend").Logger()

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	respCache, err := cache.New(0)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cache")
	}
	defer respCache.Close()

	var (
		store db.Repository
		index knowledge.VectorIndex
	)
	if cfg.DatabaseURL != "" {
		if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate db")
		}
		pg, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer pg.Close()
		store, index = pg, pg
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		store, index = db.NewMemoryStore(), knowledge.NewMemoryIndex()
	}

	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("failed to create ai provider")
	}
	defer closeProvider()
	logger.Info().Str("provider", cfg.AIProvider).Str("model", cfg.AIModel).Msg("ai provider ready")

	aiClient := &ai.Client{
		Provider: provider,
		Timeout:  cfg.AITimeout,
		Cache:    respCache,
		CacheTTL: cfg.AICacheTTL,
		Metrics:  m,
	}

	var embedder knowledge.Embedder = knowledge.HashEmbedder{Dims: hashEmbeddingDims}
	if cfg.AIProvider == "openai" && cfg.AIAPIKey != "" {
		embedder = knowledge.NewOpenAIEmbedder(cfg.AIBaseURL, cfg.AIAPIKey, cfg.EmbeddingModel)
	}

	var conv conversation.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		conv = conversation.NewRedisStore(rdb, cfg.ConversationMaxEntries, time.Now)
	} else {
		conv = conversation.NewMemoryStore(cfg.ConversationMaxEntries, time.Now)
	}

	h := httpapi.NewHandler(cfg, httpapi.Deps{
		Store:        store,
		AI:           aiClient,
		Knowledge:    knowledge.NewRetriever(embedder, index),
		Conversation: conv,
		Cache:        respCache,
		Metrics:      m,
		Logger:       logger,
	})
	router := httpapi.Router(cfg, h, m, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + cfg.AITimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

func newProvider(ctx context.Context, cfg config.Config) (ai.TextCompletionProvider, func(), error) {
	noop := func() {}
	switch cfg.AIProvider {
	case "openai":
		p, err := ai.NewOpenAIProvider(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, 0)
		if err != nil {
			return nil, noop, err
		}
		return p, noop, nil
	case "gemini":
		p, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.AIModel)
		if err != nil {
			return nil, noop, err
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return ai.MockProvider{ModelVersion: "mock-v1"}, noop, nil
	}
}
