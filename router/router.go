package router

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"walet/api"
	"walet/config"
	_ "walet/docs"
	"walet/middleware"
	"walet/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps 路由依赖的服务
type Deps struct {
	Ledger   *service.Ledger
	Notifier service.Notifier
	Hub      *api.Hub
	Logger   *slog.Logger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg)))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录），按 IP 限流
		authHandler := api.NewAuthHandler(cfg, deps.Notifier)
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(10, time.Minute))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			projectHandler := api.NewProjectHandler(deps.Ledger)
			categoryHandler := api.NewCategoryHandler(deps.Ledger)
			recordHandler := api.NewBudgetRecordHandler(deps.Ledger)
			fundsHandler := api.NewFundsHandler(deps.Ledger)
			transactionHandler := api.NewTransactionHandler(deps.Ledger)
			requestHandler := api.NewBudgetRequestHandler(deps.Ledger)
			teamHandler := api.NewTeamHandler(deps.Ledger)
			analyticsHandler := api.NewAnalyticsHandler(deps.Ledger)
			exportHandler := api.NewExportHandler(deps.Ledger)
			wsHandler := api.NewWSHandler(deps.Ledger, deps.Hub)

			projects := authorized.Group("/projects")
			{
				projects.POST("", projectHandler.Create)
				projects.GET("/managed", projectHandler.ListManaged)
				projects.GET("/joined", projectHandler.ListJoined)
				projects.GET("/:id", projectHandler.Get)
				projects.PUT("/:id", projectHandler.Update)
				projects.DELETE("/:id", projectHandler.Delete)

				// 类别
				projects.GET("/:id/categories", categoryHandler.List)
				projects.POST("/:id/categories", categoryHandler.Create)

				// 预算记录与资金划拨
				projects.GET("/:id/budget-records", recordHandler.List)
				projects.POST("/:id/budget-records", recordHandler.Create)
				projects.POST("/:id/send-funds", fundsHandler.Send)
				projects.POST("/:id/take-funds", fundsHandler.Take)

				// 消费
				projects.GET("/:id/transactions", transactionHandler.ListProject)
				projects.POST("/:id/transactions", transactionHandler.Create)
				projects.GET("/:id/members/:user_id/transactions", transactionHandler.ListMember)

				// 资金申请
				projects.GET("/:id/budget-requests", requestHandler.ListProject)
				projects.POST("/:id/budget-requests", requestHandler.Create)

				// 成员与邀请
				projects.GET("/:id/members", teamHandler.ListMembers)
				projects.DELETE("/:id/members/:user_id", teamHandler.RemoveMember)
				projects.GET("/:id/invitations", teamHandler.ListInvitations)
				projects.POST("/:id/invitations", teamHandler.Invite)

				// 分析与导出
				projects.GET("/:id/analytics", analyticsHandler.Get)
				projects.GET("/:id/export/excel", exportHandler.ExportExcel)
				projects.GET("/:id/export/csv", exportHandler.ExportCSV)

				// 余额实时推送
				projects.GET("/:id/ws", wsHandler.HandleWS)
			}

			authorized.GET("/categories/:id", categoryHandler.Get)
			authorized.DELETE("/categories/:id", categoryHandler.Delete)

			authorized.GET("/budget-records/:id", recordHandler.Get)
			authorized.PUT("/budget-records/:id", recordHandler.Update)
			authorized.DELETE("/budget-records/:id", recordHandler.Delete)

			authorized.GET("/transactions/:id", transactionHandler.Get)
			authorized.PUT("/transactions/:id", transactionHandler.Update)
			authorized.DELETE("/transactions/:id", transactionHandler.Delete)

			authorized.GET("/budget-requests", requestHandler.ListMine)
			authorized.GET("/budget-requests/:id", requestHandler.Get)
			authorized.POST("/budget-requests/:id/resolve", requestHandler.Resolve)

			authorized.GET("/invitations", teamHandler.ListMyInvitations)
			authorized.POST("/invitations/:id/accept", teamHandler.Accept)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// corsConfig 只允许前端地址跨域访问，未配置时放开所有来源
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin := strings.TrimRight(cfg.Frontend.URL, "/"); origin != "" {
		c.AllowOrigins = []string{origin}
	} else {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}
