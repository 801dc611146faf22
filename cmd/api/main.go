package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payvault/config"
	httpHandler "payvault/internal/adapter/http/handler"
	pgStorage "payvault/internal/adapter/storage/postgres"
	redisStorage "payvault/internal/adapter/storage/redis"
	"payvault/internal/core/ports"
	"payvault/internal/service"
	"payvault/pkg/logger"

	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting PayVault")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	cryptoRepo := pgStorage.NewCryptoAccountRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	depositRepo := pgStorage.NewDepositRepo(pool)
	benefRepo := pgStorage.NewBeneficiaryRepo(pool)
	catalogRepo := pgStorage.NewCatalogRepo(pool)
	currencyRepo := pgStorage.NewCurrencyRepo(pool)
	notificationRepo := pgStorage.NewNotificationRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateCache := redisStorage.NewRateCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	fees, err := service.NewConfigFeePolicy(cfg.Fees)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fee configuration")
	}
	ngnPerUSD, err := decimal.NewFromString(cfg.Rates.NGNPerUSD)
	if err != nil || !ngnPerUSD.IsPositive() {
		log.Fatal().Str("ngn_per_usd", cfg.Rates.NGNPerUSD).Msg("Invalid rates configuration")
	}
	rates := service.NewRateResolver(currencyRepo, rateCache, ngnPerUSD, cfg.Rates.CacheTTL, log)
	pins := service.NewPinService(userRepo, hashSvc)
	notifier := service.NewStoredNotifier(notificationRepo, log)
	ledger := service.NewLedger(walletRepo, cryptoRepo, cardRepo)
	refGen := service.NewRefGenerator(txRepo, depositRepo)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc, log)
	depositSvc := service.NewDepositService(depositRepo, txRepo, ledger, refGen, fees, notifier, transactor, log)
	withdrawalSvc := service.NewWithdrawalService(txRepo, ledger, refGen, fees, pins, notifier, transactor, log)
	billPaymentSvc := service.NewBillPaymentService(txRepo, walletRepo, catalogRepo, benefRepo, ledger, refGen, fees, pins, notifier, transactor, log)
	cryptoSvc := service.NewCryptoService(txRepo, currencyRepo, ledger, refGen, fees, rates, notifier, transactor, log)
	cardSvc := service.NewCardService(txRepo, cardRepo, currencyRepo, ledger, refGen, fees, rates, notifier, transactor, log)
	benefSvc := service.NewBeneficiaryService(benefRepo)
	reportingSvc := service.NewReportingService(txRepo, walletRepo, cryptoRepo, cardRepo)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		DepositSvc:     depositSvc,
		WithdrawalSvc:  withdrawalSvc,
		BillPaymentSvc: billPaymentSvc,
		CryptoSvc:      cryptoSvc,
		CardSvc:        cardSvc,
		BeneficiarySvc: benefSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
