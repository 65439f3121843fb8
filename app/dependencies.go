package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/ai-translator/config"
	"github.com/upb/ai-translator/internal/observability"
	"github.com/upb/ai-translator/repositories"
	"github.com/upb/ai-translator/repositories/memory"
	"github.com/upb/ai-translator/repositories/postgres"
	"github.com/upb/ai-translator/services/feedback"
	"github.com/upb/ai-translator/services/providers"
	"github.com/upb/ai-translator/services/providers/openai"
	"github.com/upb/ai-translator/services/translation"
	"go.uber.org/zap"
)

// EvaluationProcessor evaluates finished translate_text spans in the background
type EvaluationProcessor = observability.AsyncCallProcessor[translation.EvaluateRequest]

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Runtime *observability.Runtime
	Logger  *zap.Logger

	// Storage. DB and RepoFactory are nil when running in memory.
	DB           *postgres.DB
	RepoFactory  *postgres.RepositoryFactory
	Repositories *repositories.Repositories

	// Model gateway
	Gateway providers.Provider

	// Services
	Translation *translation.Service
	Feedback    *feedback.Service

	// Evaluation is nil when automatic evaluation is disabled
	Evaluation *EvaluationProcessor
}

// NewDependencies creates and wires up all application dependencies on an
// initialized observability runtime.
func NewDependencies(ctx context.Context, cfg *config.Config, rt *observability.Runtime) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Runtime: rt,
		Logger:  rt.Logger(),
	}

	if err := deps.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	deps.initGateway()
	deps.initServices()
	deps.initEvaluation()

	deps.Logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initStorage connects to PostgreSQL when configured, otherwise uses memory
func (d *Dependencies) initStorage(ctx context.Context) error {
	if !d.Config.Database.Enabled() {
		d.Repositories = memory.NewRepositories()
		d.Logger.Info("no database configured, keeping evaluations and feedback in memory")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(d.Config, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Repositories = factory.NewRepositories()

	d.Logger.Info("postgres repositories ready")
	return nil
}

// initGateway builds the chat-completions client with traced outbound calls
func (d *Dependencies) initGateway() {
	gw := d.Config.Gateway

	pc := providers.DefaultProviderConfig()
	pc.APIKey = gw.APIKey
	pc.BaseURL = gw.BaseURL
	pc.Deployment = gw.DeploymentID
	pc.APIVersion = gw.APIVersion
	pc.Timeout = gw.Timeout
	pc.MaxRetries = gw.MaxRetries
	pc.Transport = d.Runtime.WrapTransport(nil)

	adapter := openai.NewOpenAIAdapter(pc)
	d.Gateway = adapter

	if gw.BaseURL == "" || gw.APIKey == "" {
		d.Logger.Warn("model gateway is not fully configured, translations will fail",
			zap.String("provider", adapter.Name()))
		return
	}
	d.Logger.Info("model gateway configured",
		zap.String("provider", adapter.Name()),
		zap.String("deployment", gw.DeploymentID),
		zap.String("model", gw.Model))
}

func (d *Dependencies) initServices() {
	d.Translation = translation.NewService(d.Gateway, d.Runtime, d.Repositories.Evaluations, translation.Options{
		Model:       d.Config.Gateway.Model,
		Deployment:  d.Config.Gateway.DeploymentID,
		MaxTokens:   d.Config.Translation.MaxTokens,
		Temperature: d.Config.Translation.Temperature,
	})
	d.Feedback = feedback.NewService(d.Repositories.Feedback, d.Runtime.Tracer(), d.Logger)
}

// initEvaluation registers the background evaluator on the span processor chain
func (d *Dependencies) initEvaluation() {
	cfg := d.Config.Evaluation
	if !cfg.Enabled {
		d.Logger.Info("automatic evaluation disabled")
		return
	}

	opts := []observability.DispatchOption{
		observability.WithWorkerPool(cfg.Workers, cfg.QueueSize),
	}
	if counter, ok := d.Runtime.Instruments().Counter(observability.MetricSpanDispatches); ok {
		opts = append(opts, observability.WithDispatchCounter(counter))
	}

	processor := translation.NewEvaluationProcessor(d.Translation, d.Repositories.Evaluations, d.Logger, opts...)
	d.Runtime.Processors().Register(processor)
	d.Evaluation = processor

	d.Logger.Info("automatic evaluation enabled",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize))
}

// Close drains background evaluations and closes the database.
// The observability runtime is owned by the caller and left running.
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Evaluation != nil {
		d.Runtime.Processors().Unregister(d.Evaluation)
		if err := d.Evaluation.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain evaluations: %w", err))
		} else {
			stats := d.Evaluation.Stats()
			d.Logger.Info("evaluation dispatcher drained",
				zap.Int64("scheduled", stats.Scheduled),
				zap.Int64("completed", stats.Completed),
				zap.Int64("failed", stats.Failed),
				zap.Int64("dropped", stats.Dropped))
		}
		d.Evaluation = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	return errors.Join(errs...)
}
