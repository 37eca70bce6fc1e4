package routers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Kostikrut/bubbly-back/config"
	"github.com/Kostikrut/bubbly-back/internal/handlers"
	"github.com/Kostikrut/bubbly-back/internal/middlewares"
	"github.com/Kostikrut/bubbly-back/internal/repositories"
	"github.com/Kostikrut/bubbly-back/internal/ws"
	"github.com/Kostikrut/bubbly-back/middleware/jwt"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
	pkgmiddlewares "github.com/Kostikrut/bubbly-back/pkg/middlewares"
	"github.com/Kostikrut/bubbly-back/pkg/ratelimit"
)

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	tokens *jwt.TokenManager,
	userRepo *repositories.UserRepository,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	messageHandler *handlers.MessageHandler,
	exportHandler *handlers.ExportHandler,
	hub *ws.Hub,
	limiter ratelimit.Limiter,
	mediaDir string,
	log *logger.Logger,
) {
	// 每个请求先注入 trace ID，后续日志都能关联到同一请求
	r.Use(pkgmiddlewares.TraceMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.ClientURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", pkgmiddlewares.TraceIDHeader}
	r.Use(cors.New(corsConfig))

	auth := middlewares.AuthMiddleware(tokens, userRepo)
	rules := ratelimit.NewRules(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.MessagePerMinute)
	authLimit := pkgmiddlewares.RateLimitMiddleware(limiter, "auth", rules.Auth)
	messageLimit := pkgmiddlewares.RateLimitMiddleware(limiter, "message", rules.Message)

	// WebSocket 路由 (必须在 AsyncMiddleware 之前注册，避免握手请求被放入 Worker Pool)
	r.GET("/ws", auth, func(c *gin.Context) {
		ws.ServeWs(hub, userRepo, log, c)
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	// 上传媒体的静态访问
	r.Static(cfg.Media.BaseURL, mediaDir)

	// 异步处理中间件
	// 将请求放入 Worker Pool 中排队执行
	r.Use(middlewares.AsyncMiddleware())

	RegisterAuthRoutes(r, authHandler, auth, authLimit)
	RegisterUserRoutes(r, userHandler, auth)
	RegisterMessageRoutes(r, messageHandler, auth, messageLimit)
	RegisterExportRoutes(r, exportHandler, auth)
}

// RegisterAuthRoutes 认证路由
func RegisterAuthRoutes(r *gin.Engine, h *handlers.AuthHandler, auth, limit gin.HandlerFunc) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/signup", limit, h.Signup)                      // 注册
		authGroup.POST("/login", limit, h.Login)                        // 登录
		authGroup.POST("/forgotPassword", limit, h.ForgotPassword)      // 发送重置邮件
		authGroup.POST("/resetPassword/:token", limit, h.ResetPassword) // 重置密码
	}
	authGroup.Use(auth)
	{
		authGroup.POST("/logout", h.Logout)  // 登出
		authGroup.GET("/check", h.CheckAuth) // 会话检查
	}
}

// RegisterUserRoutes 用户路由
func RegisterUserRoutes(r *gin.Engine, h *handlers.UserHandler, auth gin.HandlerFunc) {
	userGroup := r.Group("/api/v1/users")
	userGroup.Use(auth)
	{
		userGroup.PATCH("/me", h.UpdateProfile)                   // 更新资料
		userGroup.PATCH("/me/onlineStatus", h.UpdateOnlineStatus) // 在线状态可见性
		userGroup.PATCH("/me/profilePic", h.UpdateProfilePic)     // 更新头像
		userGroup.POST("/me/wallpaper", h.SetChatWallpaper)       // 聊天壁纸

		userGroup.GET("/all", h.GetAllUsers)    // 全部用户
		userGroup.GET("/search", h.SearchUsers) // 搜索

		// 联系人
		userGroup.GET("/contacts", h.GetContacts)
		userGroup.PUT("/contacts/:id", h.AddToContacts)
		userGroup.DELETE("/contacts/:id", h.RemoveFromContacts)

		// 黑名单
		userGroup.GET("/blocked", h.GetBlockedUsers)
		userGroup.PUT("/block/:id", h.BlockUser)
		userGroup.PUT("/unblock/:id", h.UnblockUser)
	}
}

// RegisterMessageRoutes 消息路由
func RegisterMessageRoutes(r *gin.Engine, h *handlers.MessageHandler, auth, limit gin.HandlerFunc) {
	messageGroup := r.Group("/api/v1/messages")
	messageGroup.Use(auth)
	{
		messageGroup.GET("/:id", h.GetMessages)                 // 获取会话
		messageGroup.POST("/:id", limit, h.SendMessage)         // 发送消息
		messageGroup.PATCH("/deleteMany", h.DeleteManyMessages) // 批量删除
	}
}

// RegisterExportRoutes 导出路由，挂在 /users 资源域下
func RegisterExportRoutes(r *gin.Engine, h *handlers.ExportHandler, auth gin.HandlerFunc) {
	exportGroup := r.Group("/api/v1/users")
	exportGroup.Use(auth)
	{
		exportGroup.GET("/export", h.DownloadChatData) // 导出全部会话
	}
}
