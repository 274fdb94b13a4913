package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streetfood-backend/internal/recommendations"
	"streetfood-backend/internal/services/health"
	"streetfood-backend/internal/shared/config"
	"streetfood-backend/internal/shared/metrics"
	"streetfood-backend/internal/shared/server/middleware"
	"streetfood-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault   = "DEFAULT"
	rateGroupRecommend = "RECOMMEND"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, svc *recommendations.Service) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSOrigins()),
		middleware.RateLimit(rateLimitConfig(cfg)),
	)

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(health.NewService(svc.Store, svc)))

	handler := recommendations.NewHandler(svc)
	handler.RegisterRoutes(api)
	admin := api.Group("/admin", middleware.AdminToken(cfg.AdminToken, cfg.Env))
	handler.RegisterAdminRoutes(admin)

	r.GET("/metrics", metrics.Handler())

	return r
}

// rateLimitConfig gives POST /recommendations a quarter of the default budget,
// since every miss there costs an inference call.
func rateLimitConfig(cfg config.Config) middleware.RateLimitConfig {
	rps := cfg.RateLimitRPS
	burst := cfg.RateLimitBurst
	recommendBurst := burst / 4
	if recommendBurst < 1 {
		recommendBurst = 1
	}
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rateGroupDefault:   {Rate: rps, Burst: burst},
			rateGroupRecommend: {Rate: rps / 4, Burst: recommendBurst},
		},
		DefaultGroup: rateGroupDefault,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/recommendations" {
				return rateGroupRecommend
			}
			return rateGroupDefault
		},
	}
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := svc.Status(c.Request.Context(), c.Query("deep") != "")
		if !report.OK {
			respond.Unavailable(c, report)
			return
		}
		respond.OK(c, report)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
