package handler

import (
	"revenue-settlement-engine/internal/adapter/http/middleware"
	redisStore "revenue-settlement-engine/internal/adapter/storage/redis"
	"revenue-settlement-engine/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.UnitLedger
	WalletSvc      ports.WalletProvisioner
	SettlementSvc  ports.SettlementService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	MetricsReg     *prometheus.Registry // nil = metrics endpoint disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.MetricsReg != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsReg, promhttp.HandlerOpts{})))
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)
	ledger := v1.Group("/ledger")
	{
		ledger.POST("/units", rl("ledger"), ledgerHandler.UnitOperation)
		ledger.POST("/mille", rl("ledger"), ledgerHandler.MilleTransfer)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	v1.POST("/wallets", rl("wallets"), walletHandler.Provision)
	v1.POST("/webhooks/deposit", rl("webhooks"), walletHandler.DepositWebhook)

	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	v1.POST("/settlements", rl("settlements"), settlementHandler.Settle)

	return r
}
