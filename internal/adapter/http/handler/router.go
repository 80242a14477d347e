package handler

import (
	"crowdfund-ledger/internal/adapter/http/middleware"
	redisStore "crowdfund-ledger/internal/adapter/storage/redis"
	"crowdfund-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	FundingSvc     ports.FundingService
	ReportingSvc   ports.ReportingService // nil = journal routes disabled
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	OpenAPISpec    []byte
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	docs := NewDocsHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.Spec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	fundHandler := NewFundHandler(deps.FundingSvc)

	fund := v1.Group("/fund")
	{
		fund.GET("", rl("reads"), fundHandler.GetFund)
		fund.GET("/contributions/:identity", rl("reads"), fundHandler.ContributionOf)
		fund.GET("/contributors", rl("reads"), fundHandler.ContributorCount)
		fund.GET("/contributors/:index", rl("reads"), fundHandler.ContributorAt)

		// Authenticated callers are rate limited by identity.
		fund.POST("/contributions", jwtAuth, rl("contributions"), fundHandler.Contribute)
		fund.POST("/withdrawals", jwtAuth, rl("withdrawals"), fundHandler.Withdraw)
	}

	if deps.ReportingSvc != nil {
		journalHandler := NewJournalHandler(deps.ReportingSvc)
		journal := fund.Group("/journal", jwtAuth)
		{
			journal.GET("", rl("journal"), journalHandler.List)
			journal.GET("/summary", rl("journal"), journalHandler.Summary)
		}
	}

	return r
}
