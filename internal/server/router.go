package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/handlers"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/handler"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/service"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/config"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/revocation"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/tokens"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/metrics"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Greeting is the body of GET /.
const Greeting = "Hello From CloudKitchen Server"

// readyTimeout bounds each dependency check of /ready.
const readyTimeout = 2 * time.Second

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Deps is everything the router needs. Catalog and Issuer are required;
// Denylist and Redis may be nil.
type Deps struct {
	Catalog   *service.Catalog
	Issuer    *tokens.Issuer
	Denylist  *revocation.Denylist
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	// Checks are run by /ready, keyed by dependency name.
	Checks map[string]Check
}

var startTime = time.Now()

// NewRouter assembles the engine: global middleware, the catalog and token
// routes, docs, health and metrics.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.CORS())

	if d.RateLimit.Enabled {
		if d.RateLimit.UseRedis && d.Redis != nil {
			win := time.Duration(d.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, d.RateLimit.RPS, d.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(d.RateLimit.RPS, d.RateLimit.Burst))
		}
	}

	var revoked middleware.RevocationChecker
	var revoker handlers.Revoker
	if d.Denylist != nil {
		revoked = d.Denylist
		revoker = d.Denylist
	}
	auth := middleware.AuthMiddleware(d.Issuer, revoked)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Greeting)
	})

	handlers.NewTokenHandler(d.Issuer, revoker).Register(r, auth)
	handler.RegisterRoutes(r, d.Catalog, auth)
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readiness(d.Checks))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

// readiness returns 200 only when every check passes.
func readiness(checks map[string]Check) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			err := checks[name](ctx)
			cancel()
			deps[name] = err == nil
			if err != nil {
				ready = false
			}
		}

		uptime := time.Since(startTime).Round(time.Second).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	}
}
