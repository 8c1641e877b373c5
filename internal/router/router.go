package router

import (
	"time"

	"velour/config"
	"velour/internal/events"
	"velour/internal/handler"
	"velour/internal/middleware"
	"velour/internal/repository"
	"velour/internal/service"
	"velour/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, pub *events.Publisher, provider payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	payoutRepo := repository.NewPayoutRepository(db, ledgerRepo)
	packageRepo := repository.NewCreditPackageRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo, userRepo)
	creditSvc := service.NewCreditService(ledgerRepo, packageRepo, auditRepo, notifSvc, pub, provider)
	payoutSvc := service.NewPayoutService(payoutRepo, ledgerRepo, auditRepo, notifSvc, pub)
	summarySvc := service.NewSummaryService(db, ledgerRepo, payoutRepo)

	// Handlers
	creditHandler := handler.NewCreditHandler(cfg, ledgerRepo, packageRepo, creditSvc, summarySvc)
	payoutHandler := handler.NewPayoutHandler(ledgerRepo, payoutRepo, payoutSvc)
	adminHandler := handler.NewAdminHandler(adminRepo, ledgerRepo, payoutRepo, auditRepo, packageRepo, creditSvc, payoutSvc)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(creditSvc, cfg)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.GET("/credits/packages", creditHandler.ListPackages)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/credits", creditHandler.GetBalance)
			me.GET("/credits/transactions", creditHandler.GetHistory)
			me.GET("/credits/summary", creditHandler.GetSummary)
			me.GET("/earnings", creditHandler.GetEarnings)
			me.POST("/credits/purchase", creditHandler.InitiatePurchase)
			me.POST("/credits/purchase/:id/cancel", creditHandler.CancelPurchase)
			me.POST("/credits/spend", creditHandler.Spend)
			me.POST("/credits/transfer", creditHandler.Transfer)
			me.POST("/payouts", payoutHandler.Request)
			me.GET("/payouts", payoutHandler.ListMine)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/credits/volume", adminHandler.CreditVolume)
			admin.GET("/accounts", adminHandler.ListAccounts)
			admin.GET("/accounts/:id/verify", adminHandler.VerifyAccount)
			admin.POST("/accounts/:id/adjust", adminHandler.AdjustBalance)
			admin.GET("/transactions", adminHandler.ListTransactions)
			admin.POST("/transactions/:id/refund", adminHandler.RefundTransaction)
			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
			admin.POST("/payouts/:id/complete", adminHandler.CompletePayout)
			admin.POST("/payouts/:id/fail", adminHandler.FailPayout)
			admin.GET("/audit", adminHandler.ListAuditLog)
			admin.POST("/packages", adminHandler.CreatePackage)
			admin.DELETE("/packages/:id", adminHandler.DeactivatePackage)
		}

		api.POST("/webhooks/payment", paymentWebhookHandler.Handle)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
