package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"streetfood-backend/internal/llm"
	"streetfood-backend/internal/recommendations/schema"
	"streetfood-backend/internal/shared/metrics"
	"streetfood-backend/internal/shared/telemetry"
)

const (
	breakerName            = "inference"
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
	healthProbePayload     = "Test connection"
)

// Config tunes the gateway. Zero values take the defaults.
type Config struct {
	CacheMaxEntries int
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Gateway turns a composed payload into a RecommendationSet. It caches
// interpreted replies by payload fingerprint, coalesces identical in-flight
// payloads and trips a circuit breaker around the transport. Query never
// fails: every error becomes schema.FallbackSet.
type Gateway struct {
	client  llm.Client
	cache   *responseCache
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[string]
}

// New constructs a Gateway around client.
func New(client llm.Client, cfg Config) *Gateway {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(to.String())
			telemetry.Warn("inference.breaker", map[string]any{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})
	return &Gateway{
		client:  client,
		cache:   newResponseCache(cfg.CacheMaxEntries),
		breaker: breaker,
	}
}

// Query returns the interpreted reply for payload. A caller whose ctx ends
// first receives the fallback set while the shared call runs to completion
// and still populates the cache.
func (g *Gateway) Query(ctx context.Context, payload string) schema.RecommendationSet {
	key := llm.Fingerprint(payload)
	if set, ok := g.cache.get(key); ok {
		metrics.IncCacheLookup(true)
		telemetry.Debug("inference.cache_hit", map[string]any{"fingerprint": key[:12]})
		return set
	}
	metrics.IncCacheLookup(false)

	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return g.fetch(shared, key, payload)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return g.fallback(key, res.Err)
		}
		return res.Val.(schema.RecommendationSet).Clone()
	case <-ctx.Done():
		return g.fallback(key, ctx.Err())
	}
}

func (g *Gateway) fetch(ctx context.Context, key, payload string) (schema.RecommendationSet, error) {
	raw, err := g.breaker.Execute(func() (string, error) {
		return g.client.Complete(ctx, payload)
	})
	if err != nil {
		return schema.RecommendationSet{}, err
	}
	set, err := schema.Parse(raw)
	if err != nil {
		return schema.RecommendationSet{}, err
	}
	g.cache.put(key, set)
	return set, nil
}

func (g *Gateway) fallback(key string, err error) schema.RecommendationSet {
	metrics.IncFallback()
	telemetry.Warn("inference.fallback", map[string]any{
		"fingerprint": key[:12],
		"error":       err.Error(),
	})
	return schema.FallbackSet(err.Error())
}

// ClearCache drops every cached reply.
func (g *Gateway) ClearCache() {
	n := g.cache.clear()
	telemetry.Info("inference.cache_cleared", map[string]any{"entries": n})
}

// CacheLen reports the number of cached replies.
func (g *Gateway) CacheLen() int {
	return g.cache.len()
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (g *Gateway) BreakerState() string {
	return g.breaker.State().String()
}

// HealthCheck sends a fixed probe straight to the transport, bypassing the
// cache and the breaker.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	_, err := g.client.Complete(ctx, healthProbePayload)
	return err
}
