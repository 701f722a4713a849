package http

import (
	"github.com/dhanbyte/shopwave-sub001/internal/config"
	"github.com/dhanbyte/shopwave-sub001/internal/http/handlers"
	"github.com/dhanbyte/shopwave-sub001/internal/http/middleware"
	"github.com/dhanbyte/shopwave-sub001/internal/repository"
	"github.com/dhanbyte/shopwave-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string) {
	codeRepo := repository.NewCodeRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)

	ledger := service.NewLedger(codeRepo, statsRepo, withdrawalRepo, cfg.StorageTimeout, cfg.HistoryLimit)
	admin := service.NewAdminService(db, cfg.TopReferrersLimit)

	h := handlers.NewHandler(ledger, admin)
	healthHandler := handlers.NewHealthHandler(db, version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h)

	// Legacy /api routes for older storefront callers
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	referral := api.Group("/referral")
	{
		referral.GET("/validate", h.ValidateCode)
		referral.POST("/signup", h.AttributeSignup)
		referral.POST("/purchase", h.AttributePurchase)
		referral.POST("/redeem", h.RedeemCoins)
		referral.GET("/stats", h.GetStats)
		referral.POST("/code", h.CreateCode)
		referral.POST("/code/deactivate", h.DeactivateCode)
		referral.POST("/withdraw", h.RequestWithdrawal)
		referral.GET("/withdrawals", h.GetWithdrawals)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(), middleware.RequireAdmin())
	{
		admin.GET("/referrals", h.AdminReferralStats)
		admin.PATCH("/withdrawals/:id", h.ResolveWithdrawal)
	}
}
