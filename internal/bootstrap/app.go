package bootstrap

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/gin-gonic/gin"

	"streetfood-backend/internal/gateway"
	"streetfood-backend/internal/knowledge"
	"streetfood-backend/internal/llm/remote"
	"streetfood-backend/internal/recommendations"
	"streetfood-backend/internal/shared/config"
	"streetfood-backend/internal/shared/server"
	"streetfood-backend/internal/shared/telemetry"
)

// App holds shared dependencies. Router is only built by BuildWithRouter.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	Store   *knowledge.Store
	Client  *remote.Client
	Gateway *gateway.Gateway
	Service *recommendations.Service
	Watcher *knowledge.Watcher
}

// Build prepares shared dependencies without wiring routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.KnowledgePath) == "" {
		return nil, errors.New("knowledge path is required")
	}

	app := &App{Config: cfg}
	app.Store = knowledge.NewStore(cfg.KnowledgePath)
	app.Client = remote.NewClient(remote.Config{
		APIKey:      cfg.InferenceAPIKey,
		BaseURL:     cfg.InferenceAPIURL,
		Timeout:     cfg.InferenceTimeout(),
		MaxAttempts: cfg.InferenceMaxAttempts,
		RetryDelay:  cfg.InferenceRetryDelay(),
		MaxTokens:   cfg.InferenceMaxTokens,
		Temperature: cfg.InferenceTemperature,
	})
	app.Gateway = gateway.New(app.Client, gateway.Config{
		CacheMaxEntries: cfg.ResponseCacheMaxEntries,
		BreakerFailures: breakerFailures(cfg.BreakerFailures),
		BreakerCooldown: cfg.BreakerCooldown(),
	})
	app.Service = recommendations.NewService(app.Store, app.Gateway)

	if app.Client.Offline() {
		telemetry.Warn("inference.offline", map[string]any{
			"reason": "no inference api key configured",
		})
	}
	return app, nil
}

// BuildWithRouter prepares dependencies and the HTTP router.
func BuildWithRouter(cfg config.Config) (*App, error) {
	app, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	app.Router = server.NewRouter(app.Config, app.Service)
	return app, nil
}

// StartWatcher refreshes the service whenever the knowledge file changes. It
// is a no-op when watching is disabled.
func (a *App) StartWatcher(ctx context.Context) error {
	if !a.Config.KnowledgeWatch || a.Watcher != nil {
		return nil
	}
	w, err := knowledge.NewWatcher(a.Store, a.Gateway.ClearCache)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return err
	}
	a.Watcher = w
	return nil
}

// Close releases background resources.
func (a *App) Close() error {
	if a.Watcher == nil {
		return nil
	}
	err := a.Watcher.Close()
	a.Watcher = nil
	return err
}

func breakerFailures(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if uint64(n) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}
