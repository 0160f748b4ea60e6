package api

import (
	"github.com/gin-gonic/gin"

	"sudooom.im.hub/internal/auth"
	"sudooom.im.hub/internal/config"
)

// SetupRouter 设置路由
// 注册/登录等凭证签发在外部账号系统，这里只消费 token
func SetupRouter(
	cfg *config.Config,
	jwtService *auth.Service,
	groupHandler *GroupHandler,
	messageHandler *MessageHandler,
	notificationHandler *NotificationHandler,
	userHandler *UserHandler,
) *gin.Engine {
	if cfg.HTTP.Mode != "" {
		gin.SetMode(cfg.HTTP.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())

	v1 := r.Group("/api/v1")
	v1.Use(JWTAuth(jwtService))
	{
		groups := v1.Group("/groups")
		{
			groups.POST("", groupHandler.Create)
			groups.GET("", groupHandler.ListMine)
			groups.GET("/:id", groupHandler.Get)
			groups.PUT("/:id", groupHandler.Update)
			groups.DELETE("/:id", groupHandler.Delete)
			groups.GET("/:id/members", groupHandler.Members)
			groups.POST("/:id/members", groupHandler.AddMember)
			groups.DELETE("/:id/members/:userId", groupHandler.RemoveMember)
		}

		messages := v1.Group("/messages")
		{
			messages.POST("", messageHandler.Send)
			messages.GET("/private/:userId", messageHandler.PrivateHistory)
			messages.GET("/group/:groupId", messageHandler.GroupHistory)
			messages.PUT("/:id", messageHandler.Update)
			messages.DELETE("/:id", messageHandler.Delete)
			messages.POST("/:id/read", messageHandler.MarkRead)
			messages.GET("/:id/receipts", messageHandler.Receipts)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
		}

		users := v1.Group("/users")
		{
			users.GET("/online", userHandler.Online)
			users.GET("/search", userHandler.Search)
			users.GET("/:id", userHandler.Get)
		}
	}

	return r
}
