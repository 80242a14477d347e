package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdfund-ledger/config"
	httpHandler "crowdfund-ledger/internal/adapter/http/handler"
	"crowdfund-ledger/internal/adapter/oracle"
	"crowdfund-ledger/internal/adapter/payout"
	pgStorage "crowdfund-ledger/internal/adapter/storage/postgres"
	redisStorage "crowdfund-ledger/internal/adapter/storage/redis"
	"crowdfund-ledger/internal/core/access"
	"crowdfund-ledger/internal/core/domain"
	"crowdfund-ledger/internal/core/ports"
	"crowdfund-ledger/internal/service"
	"crowdfund-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

// priceSource is what the fund needs from a feed adapter at wiring time.
type priceSource interface {
	ports.PriceSource
	Address() string
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	specPath := flag.String("openapi", "docs/api/openapi.yaml", "path to the OpenAPI document")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("owner", cfg.Funding.Owner).
		Msg("Starting Crowdfund Ledger")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if cfg.Database.Migrate {
		if _, err := pgStorage.Migrate(pool, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	accountRepo := pgStorage.NewAccountRepo(pool)
	journalRepo := pgStorage.NewJournalRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	sigSvc := service.NewHMACSignatureService()

	authSvc := service.NewAuthService(accountRepo, hashSvc, tokenSvc)

	owner, err := access.NewOwner(domain.Identity(cfg.Funding.Owner))
	if err != nil {
		log.Fatal().Err(err).Str("owner", cfg.Funding.Owner).Msg("Invalid fund owner")
	}
	if cfg.Funding.OwnerPassword != "" {
		_, created, err := authSvc.EnsureAccount(ctx, ports.RegisterRequest{
			Identity: owner.Identity(),
			Password: cfg.Funding.OwnerPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed owner account")
		}
		if created {
			log.Info().Str("owner", owner.Identity().String()).Msg("Owner account created")
		}
	}

	minimum, err := decimal.NewFromString(cfg.Funding.MinimumReference)
	if err != nil {
		log.Fatal().Err(err).Str("minimum", cfg.Funding.MinimumReference).Msg("Invalid minimum contribution")
	}
	policy, err := domain.NewConversionPolicy(minimum, cfg.Funding.NativeDecimals, cfg.Oracle.Decimals, cfg.Oracle.MaxAge)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid conversion policy")
	}

	var feed priceSource
	switch cfg.Oracle.Mode {
	case config.OracleModeStatic:
		feed = oracle.NewStaticFeed(cfg.Oracle.StaticRate, cfg.Oracle.Decimals)
		log.Warn().Int64("rate", cfg.Oracle.StaticRate).Msg("Using static price feed")
	default:
		feed = oracle.NewHTTPFeed(cfg.Oracle.URL, cfg.Oracle.Timeout)
	}

	transfer := payout.NewHTTPTransferWithTimeout(cfg.Payout.URL, cfg.Payout.Secret, sigSvc, cfg.Payout.Timeout, log)

	fundingSvc, err := service.NewFundingService(service.FundingServiceDeps{
		Owner:       owner,
		PriceSource: feed,
		PriceFeed:   feed.Address(),
		Transfer:    transfer,
		Policy:      policy,
		Journal:     journalRepo,
		Transactor:  transactor,
		IdempCache:  idempotencyCache,
		LockTimeout: cfg.Funding.LockTimeout,
		Log:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize funding service")
	}

	reportingSvc := service.NewReportingService(journalRepo)
	auditSvc := service.NewAuditService(auditRepo, log)

	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	specBytes, err := os.ReadFile(*specPath)
	if err == nil {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		FundingSvc:     fundingSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		OpenAPISpec:    specBytes,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// In-flight withdrawals finish before the pool closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Payout.Timeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
