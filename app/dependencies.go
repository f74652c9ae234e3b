package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/astrodocs/missionqa/config"
	"github.com/astrodocs/missionqa/handlers"
	"github.com/astrodocs/missionqa/middleware"
	"github.com/astrodocs/missionqa/services/batch"
	"github.com/astrodocs/missionqa/services/embedding"
	"github.com/astrodocs/missionqa/services/evaluator"
	"github.com/astrodocs/missionqa/services/evaluator/ragas"
	"github.com/astrodocs/missionqa/services/generator"
	"github.com/astrodocs/missionqa/services/providers"
	"github.com/astrodocs/missionqa/services/providers/openai"
	"github.com/astrodocs/missionqa/services/retrieval"
	"github.com/astrodocs/missionqa/services/vectorstore"
	"github.com/astrodocs/missionqa/services/vectorstore/chroma"
	"github.com/astrodocs/missionqa/services/vectorstore/qdrantstore"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Pipeline stages
	Store     vectorstore.Store
	Provider  providers.Provider
	Gateway   *retrieval.Gateway
	Generator *generator.Generator
	Evaluator evaluator.Evaluator

	// Surfaces
	Sessions     *handlers.SessionManager
	AskHandler   *handlers.AskHandler
	Orchestrator *batch.Orchestrator

	// AuthMiddleware is nil when no JWT secret is configured
	AuthMiddleware *middleware.AuthMiddleware

	storeCloser func() error
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	deps.initProvider(cfg)
	deps.initPipeline(cfg)
	deps.initSurfaces(cfg)

	logger.Info("all dependencies initialized",
		zap.String("vector_store", cfg.Retrieval.Backend),
		zap.String("model", cfg.Generation.Model))
	return deps, nil
}

// initStore selects and constructs the configured vector store backend
func (d *Dependencies) initStore(cfg *config.Config) error {
	switch cfg.Retrieval.Backend {
	case "chroma":
		d.Store = chroma.NewClient(chroma.Config{
			BaseURL:    cfg.Retrieval.Chroma.URL,
			Collection: cfg.Retrieval.Chroma.Collection,
			Timeout:    cfg.Retrieval.Chroma.Timeout,
		})
	case "qdrant":
		embedder := embedding.NewClient(embedding.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.Retrieval.EmbeddingModel,
			Timeout: cfg.OpenAI.Timeout,
		})
		store, err := qdrantstore.NewStore(qdrantstore.Config{
			Host:       cfg.Retrieval.Qdrant.Host,
			Port:       cfg.Retrieval.Qdrant.Port,
			APIKey:     cfg.Retrieval.Qdrant.APIKey,
			Collection: cfg.Retrieval.Qdrant.Collection,
		}, embedder)
		if err != nil {
			return err
		}
		d.Store = store
		d.storeCloser = store.Close
	default:
		return fmt.Errorf("unsupported vector store backend: %s", cfg.Retrieval.Backend)
	}

	d.Logger.Info("vector store initialized", zap.String("backend", cfg.Retrieval.Backend))
	return nil
}

// initProvider constructs the OpenAI chat completion adapter
func (d *Dependencies) initProvider(cfg *config.Config) {
	providerCfg := providers.DefaultProviderConfig()
	providerCfg.APIKey = cfg.OpenAI.APIKey
	providerCfg.BaseURL = cfg.OpenAI.BaseURL
	providerCfg.Timeout = cfg.OpenAI.Timeout
	providerCfg.MaxRetries = cfg.OpenAI.MaxRetries

	d.Provider = openai.NewOpenAIAdapter(providerCfg)
}

// initPipeline wires the retrieve-generate-evaluate stages
func (d *Dependencies) initPipeline(cfg *config.Config) {
	d.Gateway = retrieval.NewGateway(d.Store, d.Logger)
	d.Generator = generator.NewGenerator(d.Provider, generator.Config{
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	}, d.Logger)
	d.Evaluator = ragas.NewClient(ragas.Config{
		BaseURL: cfg.Evaluation.URL,
		Timeout: cfg.Evaluation.Timeout,
	})
}

// initSurfaces wires the interactive HTTP handlers and batch orchestrator
func (d *Dependencies) initSurfaces(cfg *config.Config) {
	d.Sessions = handlers.NewSessionManager(cfg.Generation.MaxHistoryTurns)
	d.AskHandler = handlers.NewAskHandler(d.Gateway, d.Generator, d.Sessions, cfg.Retrieval.TopK, d.Logger)
	d.Orchestrator = batch.NewOrchestrator(d.Gateway, d.Generator, d.Evaluator, batch.Config{
		TopK:            cfg.Retrieval.TopK,
		MaxHistoryTurns: cfg.Generation.MaxHistoryTurns,
		Workers:         cfg.Batch.Workers,
	}, d.Logger)

	if cfg.Auth.JWTSecret != "" {
		d.AuthMiddleware = middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, d.Logger)
		d.Logger.Info("bearer token auth enabled")
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close() error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	if d.storeCloser != nil {
		if err := d.storeCloser(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}

// NewLogger builds a zap logger from the observability configuration
func NewLogger(cfg config.ObservabilityConfig, development bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.LogFormat == "text" {
		zapCfg.Encoding = "console"
	} else {
		zapCfg.Encoding = "json"
	}

	return zapCfg.Build()
}
