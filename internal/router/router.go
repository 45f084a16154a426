package router

import (
	"fmt"
	"strings"

	"github.com/wellcart-next/internal/cache"
	"github.com/wellcart-next/internal/config"
	adminhandlers "github.com/wellcart-next/internal/http/handlers/admin"
	publichandlers "github.com/wellcart-next/internal/http/handlers/public"
	"github.com/wellcart-next/internal/logger"
	"github.com/wellcart-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "wc"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts, retry in %d seconds",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（匿名会话）
		public := apiV1.Group("/public")
		public.Use(SessionMiddleware())
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:sku", publicHandler.GetProductBySKU)
			public.GET("/categories", publicHandler.GetCategories)
			public.GET("/groups", publicHandler.GetProductGroups)

			public.GET("/newsletter/popup", publicHandler.GetNewsletterPopup)
			public.POST("/newsletter/dismiss", publicHandler.DismissNewsletterPopup)
			public.POST("/newsletter/subscribe", publicHandler.SubscribeNewsletter)

			public.GET("/cart", publicHandler.GetCart)
			public.POST("/cart/items", publicHandler.AddCartItem)
			public.PUT("/cart/items/:index", publicHandler.UpdateCartQuantity)
			public.DELETE("/cart/items/:index", publicHandler.RemoveCartItem)
			public.DELETE("/cart", publicHandler.ClearCart)

			public.POST("/checkout/runs", publicHandler.StartCheckout)
			public.GET("/checkout/runs", publicHandler.ListCheckoutRuns)
			public.GET("/checkout/runs/:run_no", publicHandler.GetCheckoutRun)
			public.POST("/checkout/runs/:run_no/cancel", publicHandler.CancelCheckoutRun)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.GET("/captcha/image", adminHandler.GetImageCaptcha)
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("email")), adminHandler.AdminLogin)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, cfg.Admin.AllowedEmail, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 商品管理
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.PATCH("/products/:id/status", adminHandler.ChangeProductStatus)
				authorized.DELETE("/products/:id", adminHandler.DeleteProduct)

				// 结账运行与订阅
				authorized.GET("/checkout-runs", adminHandler.GetAdminCheckoutRuns)
				authorized.GET("/checkout-runs/:run_no", adminHandler.GetAdminCheckoutRun)
				authorized.GET("/subscribers", adminHandler.GetSubscribers)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
