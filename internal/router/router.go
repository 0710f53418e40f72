package router

import (
	"fmt"
	"strings"

	"github.com/cheezy-bite/internal/cache"
	"github.com/cheezy-bite/internal/config"
	adminhandlers "github.com/cheezy-bite/internal/http/handlers/admin"
	publichandlers "github.com/cheezy-bite/internal/http/handlers/public"
	"github.com/cheezy-bite/internal/logger"
	"github.com/cheezy-bite/internal/provider"
	"github.com/cheezy-bite/internal/realtime"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由。realtimeServer 非空时把推送端点挂到同一进程。
func SetupRouter(cfg *config.Config, c *provider.Container, realtimeServer *realtime.Server) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cb"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		public.Use(OptionalUserMiddleware())
		{
			public.GET("/menu", publicHandler.ListMenu)
			public.POST("/orders", publicHandler.CreateOrder)
			public.GET("/orders", publicHandler.ListOrders)
			public.GET("/orders/:order_no", publicHandler.GetOrder)
			public.POST("/orders/:order_no/cancel", publicHandler.CancelOrder)
			public.POST("/orders/:order_no/feedback", publicHandler.SubmitFeedback)
			public.POST("/orders/:order_no/mirror", publicHandler.MirrorStage)
		}

		// 后台认证接口
		apiV1.POST("/admin/login",
			RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")),
			adminHandler.Login,
		)

		// 后台接口（需鉴权）
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
		{
			admin.GET("/me", adminHandler.Me)
			admin.PUT("/me/password", adminHandler.ChangePassword)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/active", adminHandler.ListActiveOrders)
			admin.GET("/orders/:order_no", adminHandler.GetOrder)
			admin.PATCH("/orders/:order_no/stage", adminHandler.UpdateOrderStage)

			admin.GET("/menu-items", adminHandler.ListMenuItems)
			admin.GET("/menu-items/:id", adminHandler.GetMenuItem)
			admin.POST("/menu-items", adminHandler.CreateMenuItem)
			admin.PUT("/menu-items/:id", adminHandler.UpdateMenuItem)
			admin.DELETE("/menu-items/:id", adminHandler.DeleteMenuItem)

			admin.GET("/offers", adminHandler.ListOffers)
			admin.GET("/offers/:id", adminHandler.GetOffer)
			admin.POST("/offers", adminHandler.CreateOffer)
			admin.PUT("/offers/:id", adminHandler.UpdateOffer)
			admin.DELETE("/offers/:id", adminHandler.DeleteOffer)
		}
	}

	if realtimeServer != nil {
		realtimeServer.RegisterRoutes(r.Group("/realtime"))
	}

	return r
}
