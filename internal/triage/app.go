package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/triage/biz"
	"github.com/pawsense/triage/internal/triage/handler"
	"github.com/pawsense/triage/internal/triage/router"
	"github.com/pawsense/triage/internal/triage/store"
	"github.com/pawsense/triage/pkg/component/milvus"
	"github.com/pawsense/triage/pkg/infra/app"
	"github.com/pawsense/triage/pkg/llm"
	"github.com/pawsense/triage/pkg/llm/resilience"

	// Register model providers.
	_ "github.com/pawsense/triage/pkg/llm/ollama"
	_ "github.com/pawsense/triage/pkg/llm/openai"
)

const (
	appName        = "pawsense-triage"
	appDescription = `PawSense Triage Service

The symptom-to-disease triage engine for the PawSense platform.

This server provides:
  - Negation-aware symptom extraction from owner notes
  - Disease matching against the veterinary knowledge base
  - AI-verified risk assessment with red-flag safety overrides
  - SOAP-structured clinical report generation`
)

// NewApp creates a new application instance.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run runs the triage service with the given options.
func Run(opts *Options) error {
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting triage service...")

	ctx := context.Background()

	kb, err := store.LoadKnowledgeBase(opts.Triage.DiseaseFile)
	if err != nil {
		return fmt.Errorf("failed to load disease knowledge base: %w", err)
	}
	vocab, err := store.LoadVocabulary(opts.Triage.AliasFile, opts.Triage.CodesFile)
	if err != nil {
		return fmt.Errorf("failed to load symptom vocabulary: %w", err)
	}
	logger.Infow("Knowledge base loaded", "diseases", kb.Size(), "symptom_codes", len(vocab.Codes()))

	embedder, chat, err := buildProviders(opts)
	if err != nil {
		return err
	}

	vectors, cleanup, err := buildVectorStore(ctx, opts, embedder, vocab)
	if err != nil {
		return err
	}
	defer cleanup()

	cache := buildVerdictCache(opts)

	extractor := biz.NewExtractor(vocab, vectors, chat, embedder, &biz.ExtractorConfig{
		SemanticThreshold: opts.Triage.SemanticThreshold,
		TermCollection:    opts.Triage.TermCollection,
	})
	matcher := biz.NewMatcher(kb, &biz.MatcherConfig{
		Threshold: opts.Triage.MatchThreshold,
		TopN:      opts.Triage.TopN,
	})
	verifier := biz.NewVerifier(chat, kb, cache)
	reranker := biz.NewReranker(kb)
	service := biz.NewTriageService(extractor, matcher, verifier, reranker, cache)
	logger.Info("Triage pipeline initialized")

	return serveHTTP(opts, service)
}

// buildProviders creates the embedding and chat providers, wrapped with retry
// and circuit-breaker policies. Offline mode returns nil providers and the
// pipeline degrades per its stage contracts.
func buildProviders(opts *Options) (llm.EmbeddingProvider, llm.ChatProvider, error) {
	if opts.Triage.OfflineMode {
		logger.Warn("Offline mode: model providers disabled, running degraded pipeline")
		return nil, nil, nil
	}

	embedder, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	chat, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chat provider: %w", err)
	}

	logger.Infow("Model providers initialized",
		"embedding", embedder.Name(),
		"chat", chat.Name(),
	)
	return resilience.NewResilientEmbeddingProvider(embedder, nil, nil),
		resilience.NewResilientChatProvider(chat, nil, nil),
		nil
}

// buildVectorStore selects the Milvus-backed store when enabled, the
// in-memory store otherwise, and builds the symptom term index. Without an
// embedder the semantic fallback is unavailable and no store is needed.
func buildVectorStore(ctx context.Context, opts *Options, embedder llm.EmbeddingProvider, vocab *store.Vocabulary) (store.VectorStore, func(), error) {
	noop := func() {}
	if embedder == nil {
		return nil, noop, nil
	}

	var vectors store.VectorStore
	cleanup := noop

	if opts.Milvus.Enabled {
		client, err := milvus.New(opts.Milvus)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		cleanup = func() { _ = client.Close(context.Background()) }
		vectors = store.NewMilvusStore(client)
		logger.Info("Milvus vector store initialized")
	} else {
		vectors = store.NewMemoryStore()
		logger.Info("In-memory vector store initialized")
	}

	if err := store.BuildSymptomIndex(ctx, vectors, embedder, vocab, opts.Triage.TermCollection, opts.Triage.IndexConcurrency); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("failed to build symptom term index: %w", err)
	}
	return vectors, cleanup, nil
}

// buildVerdictCache creates the verdict cache; disabled configs get a
// miss-only cache so the pipeline wiring stays uniform.
func buildVerdictCache(opts *Options) *biz.VerdictCache {
	if !opts.Cache.Enabled {
		return biz.NewVerdictCache(nil, nil)
	}

	client := opts.Redis.NewClient()
	logger.Infow("Verdict cache enabled", "ttl", opts.Cache.TTL.String())
	return biz.NewVerdictCache(client, &biz.VerdictCacheConfig{
		Enabled:   true,
		TTL:       opts.Cache.TTL,
		KeyPrefix: opts.Cache.KeyPrefix,
	})
}

// serveHTTP runs the gin server until SIGINT or SIGTERM, then shuts down
// gracefully within the configured timeout.
func serveHTTP(opts *Options, service biz.TriageService) error {
	gin.SetMode(opts.HTTP.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Register(engine, handler.NewTriageHandler(service))

	srv := &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		logger.Infow("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
