package app

import (
	"codeleap_backend/docs"
	"codeleap_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 学习会话：所有状态迁移都由显式的用户意图接口触发
		sessions := api.Group("/sessions")
		{
			sessions.POST("", c.session.Create)
			sessions.GET("/:id", c.session.Get)
			sessions.POST("/:id/plan", c.session.GeneratePlan)
			sessions.POST("/:id/steps/:index", c.session.SelectStep)
			sessions.DELETE("/:id/step", c.session.DeselectStep)
			sessions.POST("/:id/next", c.session.NextStep)
			sessions.POST("/:id/prev", c.session.PrevStep)
			sessions.PUT("/:id/mode", c.session.ChangeMode)
			sessions.PUT("/:id/code", c.session.UpdateCode)
			sessions.POST("/:id/run", c.session.RunCode)
			sessions.POST("/:id/improve", c.session.ImproveCode)
			sessions.POST("/:id/submit", c.session.SubmitCode)
			sessions.POST("/:id/explain", c.session.ExplainConcept)
			sessions.PUT("/:id/panel", c.session.TogglePanel)
		}

		// 学习计划反馈
		api.POST("/feedback", c.feedback.Store)
		api.GET("/feedback/:planId", c.feedback.List)
	}
}
