package api

import (
	"alcyxob/totalfit/internal/app"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	registry *app.Registry,
	logger *zap.Logger,
) {
	authHandler := NewAuthHandler(registry, logger)
	planHandler := NewPlanHandler()
	chatHandler := NewChatHandler()

	authMiddleware := AuthMiddleware(jwtSecret)
	sessionMiddleware := SessionMiddleware(registry)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware, sessionMiddleware)
	{
		protected.GET("/state", planHandler.GetState)
		protected.POST("/dashboard", planHandler.Dashboard)

		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", planHandler.ListPlans)
			planGroup.POST("/new", planHandler.CreateNew)
			planGroup.POST("/generate", planHandler.Generate)
			planGroup.POST("/evolve", planHandler.Evolve)
			planGroup.POST("/save", planHandler.Save)

			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.POST("/:planId/view", planHandler.ViewPlan)
			planGroup.PUT("/:planId/notes", planHandler.UpdateNotes)
			planGroup.POST("/:planId/notes/stamp", planHandler.StampNotes)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)
			planGroup.POST("/:planId/export", planHandler.ExportPlan)
		}

		protected.GET("/chat", chatHandler.History)
		protected.POST("/chat", chatHandler.Send)

		protected.POST("/reminder/dismiss", planHandler.DismissReminder)
	}
}
