package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the /api routes and middleware.
func NewRouter(h *Handler) *gin.Engine {
	if h.opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.log))
	corsCfg := cors.Config{
		AllowOrigins:     h.opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		// cors.New rejects an empty allow-list; deny every cross-origin request instead.
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/images/:id/raw", h.RawImage)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/2fa/login", h.LoginTwoFactor)
			authGroup.POST("/logout", h.Logout)
			authGroup.GET("/me", h.RequireAuth, h.Me)
			authGroup.PATCH("/me", h.RequireAuth, h.UpdateAccount)
			authGroup.POST("/password", h.RequireAuth, h.ChangePassword)
		}

		private := api.Group("", h.RequireAuth)

		sessions := private.Group("/sessions")
		{
			sessions.GET("", h.ListSessions)
			sessions.DELETE("/:id", h.RevokeSession)
			sessions.POST("/revoke-others", h.RevokeOtherSessions)
		}

		security := private.Group("/security/2fa")
		{
			security.GET("", h.TwoFactorStatus)
			security.POST("/setup", h.TwoFactorSetup)
			security.POST("/verify", h.TwoFactorVerify)
			security.POST("/disable", h.TwoFactorDisable)
		}

		templates := private.Group("/templates")
		{
			templates.GET("", h.ListTemplates)
			templates.POST("", h.CreateTemplate)
			templates.GET("/:id", h.GetTemplate)
			templates.PUT("/:id", h.UpdateTemplate)
			templates.DELETE("/:id", h.DeleteTemplate)
			templates.POST("/:id/duplicate", h.DuplicateTemplate)
			templates.POST("/:id/preview", h.PreviewTemplate)
			templates.POST("/:id/send", h.SendTemplate)
		}

		contacts := private.Group("/contacts")
		{
			contacts.GET("", h.ListContacts)
			contacts.POST("", h.CreateContact)
			contacts.POST("/import", h.ImportContacts)
			contacts.GET("/:id", h.GetContact)
			contacts.PUT("/:id", h.UpdateContact)
			contacts.DELETE("/:id", h.DeleteContact)
		}

		history := private.Group("/history")
		{
			history.GET("", h.ListHistory)
			history.GET("/:id", h.GetHistory)
			history.GET("/:id/logs", h.ListHistoryLogs)
		}

		scheduled := private.Group("/scheduled")
		{
			scheduled.GET("", h.ListScheduled)
			scheduled.POST("", h.CreateScheduled)
			scheduled.GET("/:id", h.GetScheduled)
			scheduled.POST("/:id/cancel", h.CancelScheduled)
		}

		notifications := private.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
			notifications.GET("/settings", h.NotificationSettings)
			notifications.PUT("/settings", h.UpdateNotificationSettings)
			notifications.GET("/ws", h.NotificationSocket)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.DELETE("/:id", h.DeleteNotification)
		}

		profile := private.Group("/profile")
		{
			profile.GET("", h.GetProfile)
			profile.PUT("", h.UpdateProfile)
			profile.POST("/avatar", h.UploadAvatar)
		}

		images := private.Group("/images")
		{
			images.GET("", h.ListImages)
			images.POST("", h.UploadImage)
			images.DELETE("/:id", h.DeleteImage)
		}
	}

	return r
}
