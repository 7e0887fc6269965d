package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/chat"
	"github.com/avvvet/tablebuddy/internal/config"
	"github.com/avvvet/tablebuddy/internal/handlers"
	"github.com/avvvet/tablebuddy/internal/llm"
	"github.com/avvvet/tablebuddy/internal/memory"
	"github.com/avvvet/tablebuddy/internal/metrics"
	"github.com/avvvet/tablebuddy/internal/reservation"
)

// App is the assembled chat loop shared by the server and the REPL.
type App struct {
	Chat    *chat.Service
	Memory  *memory.Manager
	Metrics *metrics.Metrics
}

// New wires the provider, backend client, dispatcher and session storage
// described by cfg. Sessions live in Redis when REDIS_URL is set and in
// process memory otherwise.
func New(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	m, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("LLM provider initialized", zap.String("provider", cfg.LLMProvider))

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	classifier := handlers.NewIntentClassifier(provider, logger.Named("classifier"), m)
	api := reservation.NewClient(cfg.Reservation, m)
	dispatcher := handlers.NewDispatcher(classifier, api, logger.Named("dispatcher"), m)
	manager := memory.NewManager(store, logger.Named("memory"))

	return &App{
		Chat:    chat.NewService(dispatcher, manager, logger.Named("chat")),
		Memory:  manager,
		Metrics: m,
	}, nil
}

// NewProvider selects the LLM backend named by LLM_PROVIDER.
func NewProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout)
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

func newStore(cfg *config.Config, logger *zap.Logger) (memory.Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, keeping sessions in memory")
		return memory.NewInMemoryStore(), nil
	}

	store, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	logger.Info("Redis session store connected", zap.Duration("ttl", cfg.SessionTTL))
	return store, nil
}

func (a *App) Close() error {
	return a.Memory.Close()
}
