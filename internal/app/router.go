package app

import (
	"adaptive_tutor/docs"
	"adaptive_tutor/internal/config"
	"adaptive_tutor/internal/controller"
	"adaptive_tutor/internal/middleware"
	"adaptive_tutor/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 辅导接口，启用认证时校验令牌
	registerTutorRoutes(router.Group("/api"), c.tutor, cfg)
}

func registerTutorRoutes(api *gin.RouterGroup, tc *controller.TutorController, cfg *config.Config) {
	tutor := api.Group("/tutor")
	tutor.Use(middleware.AuthMiddleware(cfg.Auth))
	{
		tutor.GET("/next-exercise", tc.NextExercise)
		tutor.POST("/answer", tc.SubmitAnswer)
		tutor.GET("/mastery", tc.Mastery)
		tutor.GET("/suggestions", tc.Suggestions)
		tutor.GET("/progress", tc.Progress)
		tutor.GET("/history", tc.History)
	}
}
