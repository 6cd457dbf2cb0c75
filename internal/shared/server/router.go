package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skincare-backend/internal/services/health"
	"skincare-backend/internal/sessions"
	"skincare-backend/internal/shared/config"
	"skincare-backend/internal/shared/metrics"
	"skincare-backend/internal/shared/server/middleware"
	"skincare-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault        = "DEFAULT"
	rateGroupRecommendation = "RECOMMENDATION"
)

// recommendationRoutes may call the recommendation service or a vision
// provider and get the stricter rate limit.
var recommendationRoutes = map[string]struct{}{
	"/api/v1/sessions/:id/advance":    {},
	"/api/v1/sessions/:id/jump":       {},
	"/api/v1/sessions/:id/regenerate": {},
	"/api/v1/sessions/:id/results":    {},
	"/api/v1/sessions/:id/image":      {},
}

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config         config.Config
	SessionHandler *sessions.Handler
	Health         *health.Service
	Limiter        *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)
	if deps.Config.RateLimitEnabled {
		r.Use(middleware.RateLimit(rateLimitConfig(deps.Config, deps.Limiter)))
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	registerMeRoutes(api)
	if deps.SessionHandler != nil {
		deps.SessionHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	perSecond := func(perMinute int) float64 {
		return float64(perMinute) / float64(time.Minute/time.Second)
	}
	recommendBurst := cfg.RateLimitRecommendPM / 4
	if recommendBurst < 1 {
		recommendBurst = 1
	}
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		Limiter:      limiter,
		GroupFor: func(c *gin.Context) string {
			if _, ok := recommendationRoutes[c.FullPath()]; ok && c.Request.Method != http.MethodGet {
				return rateGroupRecommendation
			}
			if c.FullPath() == "/api/v1/sessions/:id/results" {
				return rateGroupRecommendation
			}
			return rateGroupDefault
		},
		Rules: map[string]middleware.RateLimitRule{
			rateGroupDefault:        {Rate: perSecond(cfg.RateLimitPerMinute), Burst: cfg.RateLimitBurst},
			rateGroupRecommendation: {Rate: perSecond(cfg.RateLimitRecommendPM), Burst: recommendBurst},
		},
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
