// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jojomine/mining-platform-backend/internal/common/config"
	"github.com/jojomine/mining-platform-backend/internal/common/jwt"
	"github.com/jojomine/mining-platform-backend/internal/common/metrics"
	adminHandler "github.com/jojomine/mining-platform-backend/internal/handler/admin"
	authHandler "github.com/jojomine/mining-platform-backend/internal/handler/auth"
	financeHandler "github.com/jojomine/mining-platform-backend/internal/handler/finance"
	miningHandler "github.com/jojomine/mining-platform-backend/internal/handler/mining"
	referralHandler "github.com/jojomine/mining-platform-backend/internal/handler/referral"
	userHandler "github.com/jojomine/mining-platform-backend/internal/handler/user"
	walletHandler "github.com/jojomine/mining-platform-backend/internal/handler/wallet"
	"github.com/jojomine/mining-platform-backend/internal/middleware"
	"github.com/jojomine/mining-platform-backend/internal/repository"
	"github.com/jojomine/mining-platform-backend/internal/scheduler"
	authService "github.com/jojomine/mining-platform-backend/internal/service/auth"
	"github.com/jojomine/mining-platform-backend/internal/service/commission"
	financeService "github.com/jojomine/mining-platform-backend/internal/service/finance"
	miningService "github.com/jojomine/mining-platform-backend/internal/service/mining"
	settingsService "github.com/jojomine/mining-platform-backend/internal/service/settings"
	userService "github.com/jojomine/mining-platform-backend/internal/service/user"
	walletService "github.com/jojomine/mining-platform-backend/internal/service/wallet"
	"github.com/jojomine/mining-platform-backend/pkg/pricefeed"
)

// setupRouter 设置路由，并返回装配好的定时任务调度器
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *scheduler.Scheduler {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	userPackageRepo := repository.NewUserPackageRepository(db)
	bonusRepo := repository.NewBonusRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	leadershipRepo := repository.NewLeadershipRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	refillRepo := repository.NewRefillRepository(db)
	configRepo := repository.NewSystemConfigRepository(db)

	// 外部行情客户端
	priceClient := pricefeed.NewClient(&cfg.PriceFeed)

	// 初始化服务
	feeUserID := cfg.Business.FeeAccount.UserID
	settingsSvc := settingsService.NewService(configRepo)
	walletSvc := walletService.NewService(userRepo, ledgerRepo, settingsSvc, db, feeUserID)
	referralSvc := commission.NewReferralService(commissionRepo, walletSvc)
	accrualSvc := commission.NewAccrualService(userPackageRepo, bonusRepo, walletSvc, settingsSvc, db)
	leadershipSvc := commission.NewLeadershipService(userRepo, userPackageRepo, leadershipRepo, walletSvc, settingsSvc, db)

	packageSvc := miningService.NewPackageService(packageRepo)
	purchaseSvc := miningService.NewPurchaseService(
		userRepo, packageRepo, userPackageRepo, walletSvc, referralSvc, settingsSvc, db,
		cfg.Business.Mining.BonusDays, cfg.Business.Mining.BonusMonths,
	)
	lifecycleSvc := miningService.NewLifecycleService(userRepo, userPackageRepo, bonusRepo, walletSvc, db)

	authSvc := authService.NewAuthService(db, userRepo, adminRepo, jwtManager)
	userSvc := userService.NewUserService(
		userRepo, userPackageRepo, bonusRepo, commissionRepo, leadershipRepo,
		walletSvc, cfg.Business.Invite.BaseURL,
	)

	withdrawalSvc := financeService.NewWithdrawalService(
		withdrawalRepo, ledgerRepo, walletSvc, settingsSvc, priceClient, db, feeUserID)
	refillSvc := financeService.NewRefillService(refillRepo, walletSvc, db)
	dashboardSvc := financeService.NewDashboardService(ledgerRepo, userPackageRepo)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc)
	userH := userHandler.NewHandler(userSvc)
	miningH := miningHandler.NewHandler(packageSvc, purchaseSvc, lifecycleSvc)
	walletH := walletHandler.NewHandler(walletSvc)
	referralH := referralHandler.NewHandler(userSvc, referralSvc, leadershipSvc)
	financeH := financeHandler.NewHandler(withdrawalSvc, refillSvc, priceClient)
	adminH := adminHandler.NewHandler(packageSvc, settingsSvc, withdrawalSvc, refillSvc, dashboardSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins, cfg.CORS.AllowCredentials))
	r.Use(middleware.Logging(logger))
	if cfg.Metrics.Enabled {
		r.Use(metrics.Get().GinMiddleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/auth/register", authH.Register)
			public.POST("/auth/login", authH.Login)
			public.POST("/auth/admin/login", authH.AdminLogin)
			public.POST("/auth/refresh", authH.RefreshToken)

			public.GET("/packages", miningH.ListPackages)
			public.GET("/packages/:id", miningH.GetPackage)
			public.GET("/finance/price", financeH.GetPrice)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			user.GET("/user/profile", userH.GetProfile)
			user.GET("/user/dashboard", userH.GetDashboard)

			user.POST("/packages/purchase", miningH.Purchase)
			user.GET("/packages/mine", miningH.ListMyPackages)
			user.POST("/packages/mine/:id/pullout", miningH.PullOut)
			user.POST("/packages/mine/:id/retain", miningH.Retain)
			user.POST("/packages/mine/:id/recycle", miningH.Recycle)

			user.GET("/wallet/balance", walletH.GetBalance)
			user.GET("/wallet/transactions", walletH.ListTransactions)
			user.POST("/wallet/transfer", walletH.Transfer)

			user.GET("/referral/invite", referralH.GetInviteInfo)
			user.GET("/referral/invite/qrcode", referralH.InviteQRCode)
			user.GET("/referral/downline", referralH.ListDownline)
			user.GET("/referral/commissions", referralH.ListCommissions)
			user.GET("/referral/leadership", referralH.ListLeadershipBonuses)

			user.POST("/finance/withdrawals", financeH.RequestWithdrawal)
			user.GET("/finance/withdrawals", financeH.ListWithdrawals)
			user.POST("/finance/refills", financeH.RequestRefill)
			user.GET("/finance/refills", financeH.ListRefills)
		}

		// 管理端接口（需要管理员认证）
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager))
		{
			admin.POST("/packages", adminH.CreatePackage)
			admin.GET("/packages", adminH.ListPackages)
			admin.PUT("/packages/:id", adminH.UpdatePackage)
			admin.PUT("/packages/:id/status", adminH.UpdatePackageStatus)
			admin.DELETE("/packages/:id", adminH.DeletePackage)

			admin.GET("/settings", adminH.ListSettings)
			admin.PUT("/settings", adminH.UpdateSetting)
			admin.DELETE("/settings/:key", adminH.DeleteSetting)

			admin.GET("/withdrawals/pending", adminH.ListPendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminH.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminH.RejectWithdrawal)

			admin.GET("/refills/pending", adminH.ListPendingRefills)
			admin.POST("/refills/:id/approve", adminH.ApproveRefill)
			admin.POST("/refills/:id/reject", adminH.RejectRefill)

			admin.GET("/finance/overview", adminH.GetFinanceOverview)
		}
	}

	// 定时任务
	tasks := scheduler.NewTaskHandler(accrualSvc, leadershipSvc, userPackageRepo)
	sched := scheduler.NewScheduler()
	sched.AddTask("daily-accrual",
		time.Duration(cfg.Business.Accrual.DailyInterval)*time.Minute, tasks.SettleDailyAccruals)
	sched.AddTask("monthly-accrual",
		time.Duration(cfg.Business.Accrual.MonthlyInterval)*time.Minute, tasks.SettleMonthlyAccruals)
	sched.AddTask("leadership-settlement", 6*time.Hour, tasks.SettleLeadership)
	sched.AddTask("active-packages-metric", 5*time.Minute, tasks.RefreshActivePackagesMetric)

	return sched
}
