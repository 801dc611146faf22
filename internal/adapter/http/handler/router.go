package handler

import (
	"payvault/internal/adapter/http/middleware"
	redisStore "payvault/internal/adapter/storage/redis"
	"payvault/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	DepositSvc     ports.DepositService
	WithdrawalSvc  ports.WithdrawalService
	BillPaymentSvc ports.BillPaymentService
	CryptoSvc      ports.CryptoService
	CardSvc        ports.CardService
	BeneficiarySvc ports.BeneficiaryService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

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

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	v1.PUT("/auth/pin", jwtAuth, authHandler.SetPin)

	walletHandler := NewWalletHandler(deps.ReportingSvc, deps.DepositSvc, deps.WithdrawalSvc)
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balances", rl("reads"), walletHandler.GetBalances)
	}
	deposits := v1.Group("/deposits", jwtAuth)
	{
		deposits.POST("", rl("payments"), walletHandler.InitiateDeposit)
		deposits.POST("/confirm", rl("payments"), walletHandler.ConfirmDeposit)
	}
	v1.POST("/withdrawals", jwtAuth, rl("withdrawals"), walletHandler.Withdraw)

	billHandler := NewBillPaymentHandler(deps.BillPaymentSvc)
	bills := v1.Group("/bill-payments", jwtAuth)
	{
		bills.POST("", rl("payments"), billHandler.Initiate)
		bills.POST("/confirm", rl("payments"), billHandler.Confirm)
	}

	cryptoHandler := NewCryptoHandler(deps.CryptoSvc)
	crypto := v1.Group("/crypto", jwtAuth)
	{
		crypto.POST("/buy/preview", rl("reads"), cryptoHandler.PreviewBuy)
		crypto.POST("/buy", rl("crypto"), cryptoHandler.Buy)
		crypto.POST("/sell/preview", rl("reads"), cryptoHandler.PreviewSell)
		crypto.POST("/sell", rl("crypto"), cryptoHandler.Sell)
		crypto.POST("/send", rl("crypto"), cryptoHandler.Send)
	}

	cardHandler := NewCardHandler(deps.CardSvc)
	cards := v1.Group("/cards", jwtAuth)
	{
		cards.POST("", rl("cards"), cardHandler.Create)
		cards.POST("/fund", rl("cards"), cardHandler.Fund)
		cards.POST("/withdraw", rl("cards"), cardHandler.Withdraw)
	}

	benefHandler := NewBeneficiaryHandler(deps.BeneficiarySvc)
	beneficiaries := v1.Group("/beneficiaries", jwtAuth)
	{
		beneficiaries.POST("", rl("reads"), benefHandler.Create)
		beneficiaries.GET("", rl("reads"), benefHandler.List)
		beneficiaries.DELETE("/:id", rl("reads"), benefHandler.Delete)
	}

	txnHandler := NewTransactionHandler(deps.ReportingSvc)
	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("reads"), txnHandler.List)
		transactions.GET("/stats", rl("reads"), txnHandler.Stats)
	}

	return r
}
