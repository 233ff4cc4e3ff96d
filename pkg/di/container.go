package di

import (
	"context"
	"fmt"
	"time"

	"solo-persona/backend/ai"
	"solo-persona/backend/internal/prompts"
	"solo-persona/backend/internal/quiz"
	"solo-persona/backend/internal/service"
	"solo-persona/backend/internal/session"
	"solo-persona/backend/internal/ws"
	"solo-persona/backend/pkg/config"
	"solo-persona/backend/pkg/health"
	"solo-persona/backend/pkg/logger"
	"solo-persona/backend/pkg/resilience"
	"solo-persona/backend/pkg/secrets"
)

// Container holds all the dependencies for the application
type Container struct {
	Config    *config.Config
	Logger    *logger.Logger
	Secrets   *secrets.VaultManager
	Breaker   *resilience.CircuitBreaker
	Pool      *quiz.Pool
	Prompts   *prompts.Builder
	Profiles  *service.ProfileService
	Portraits *service.PortraitService
	Matches   *service.MatchService
	Hub       *ws.Hub
	Sessions  *session.Store
	Health    *health.Checker
}

// Generators lets callers supply the upstream clients. When both are nil, New
// dials Gemini with the API key resolved through the secrets manager.
type Generators struct {
	Text   ai.TextGenerator
	Images ai.ImageGenerator
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, gens Generators) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	pool, err := quiz.LoadPool(cfg.Quiz.QuestionPoolPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	if pool.Len() < cfg.Quiz.QuestionsPerSession {
		log.Warn("Question pool is smaller than a session",
			"pool", pool.Len(),
			"per_session", cfg.Quiz.QuestionsPerSession,
		)
	}

	content, err := prompts.LoadContent(cfg.Quiz.PromptContentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt content: %w", err)
	}
	builder, err := prompts.NewBuilder(content)
	if err != nil {
		return nil, fmt.Errorf("failed to compile prompts: %w", err)
	}

	secretManager, err := secrets.NewVaultManager(secrets.VaultConfig{
		Enabled:     cfg.Vault.Enabled,
		Address:     cfg.Vault.Address,
		Token:       cfg.Vault.Token,
		Namespace:   cfg.Vault.Namespace,
		SecretsPath: cfg.Vault.SecretsPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "gemini",
		FailureThreshold: cfg.Gemini.BreakerThreshold,
		SuccessThreshold: 1,
		RetryTimeout:     cfg.Gemini.BreakerRetry,
	}, log)

	if gens.Text == nil && gens.Images == nil {
		apiKey := secretManager.GetSecretWithDefault(ctx, secrets.GeminiAPIKey, cfg.Gemini.APIKey)
		client, err := ai.NewGeminiClient(ctx, ai.GeminiOptions{
			APIKey:  apiKey,
			Breaker: breaker,
			Metrics: ai.DefaultMetrics(),
			Logger:  log,
		})
		if err != nil {
			secretManager.Close()
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		gens = Generators{Text: client, Images: client}
	}
	if gens.Text == nil || gens.Images == nil {
		secretManager.Close()
		return nil, fmt.Errorf("both text and image generators are required")
	}

	svcConfig := service.Config{
		TextModel:      cfg.Gemini.TextModel,
		ImageModel:     cfg.Gemini.ImageModel,
		ThinkingBudget: cfg.Gemini.ThinkingBudget,
		CallTimeout:    cfg.Gemini.CallTimeout,
	}
	profiles := service.NewProfileService(gens.Text, builder, svcConfig)
	portraits := service.NewPortraitService(gens.Images, builder, svcConfig)
	matches := service.NewMatchService(gens.Text, builder, svcConfig)

	hub := ws.NewHub(log)
	store := session.NewStore(session.Dependencies{
		Profiles:            profiles,
		Portraits:           portraits,
		Matches:             matches,
		Pool:                pool.Questions,
		QuestionsPerSession: cfg.Quiz.QuestionsPerSession,
		Notify:              hub.Publish,
		Logger:              log,
	}, session.StoreOptions{
		TTL:         cfg.Session.TTL,
		PurgeWindow: cfg.Session.PurgeWindow,
		MaxSessions: cfg.Session.MaxSize,
	})

	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterCountCheck("question_pool", pool.Len, cfg.Quiz.QuestionsPerSession)
	checker.RegisterCircuitBreakerCheck("gemini", breaker)

	return &Container{
		Config:    cfg,
		Logger:    log,
		Secrets:   secretManager,
		Breaker:   breaker,
		Pool:      pool,
		Prompts:   builder,
		Profiles:  profiles,
		Portraits: portraits,
		Matches:   matches,
		Hub:       hub,
		Sessions:  store,
		Health:    checker,
	}, nil
}

// Start launches the background loops; they stop when ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run(ctx)
	c.Health.Start(ctx)
}

// Close releases caches and janitors.
func (c *Container) Close() {
	c.Sessions.Close()
	c.Secrets.Close()
}
