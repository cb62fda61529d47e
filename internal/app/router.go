package app

import (
	"scout_crm_backend/docs"
	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/middleware"
	"scout_crm_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes. The assessment endpoints are opened by players from
	// outreach messages and must work without an account.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.POST("/public/assessment/:prospectId/:action", c.activity.Record)
	}

	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware(cfg))
	{
		authorized.GET("/me", c.auth.Me)

		authorized.POST("/prospects", c.prospect.Create)
		authorized.GET("/prospects/:id", c.prospect.Get)
		authorized.PUT("/prospects/:id", c.prospect.Update)
		authorized.DELETE("/prospects/:id", c.prospect.Delete)
		authorized.POST("/prospects/:id/status", c.pipeline.ChangeStatus)
		authorized.POST("/prospects/:id/evaluate", c.extraction.Evaluate)

		authorized.GET("/pipeline/board", c.pipeline.Board)
		authorized.GET("/pipeline/import-review", c.pipeline.ImportReview)

		authorized.POST("/extraction/preview", c.extraction.Extract)
		authorized.POST("/extraction/import", c.extraction.Import)
		authorized.POST("/extraction/import-screenshot", c.extraction.ImportScreenshot)

		authorized.POST("/prospects/:id/outreach/draft", c.outreach.Draft)
		authorized.POST("/prospects/:id/outreach", c.outreach.Log)
		authorized.GET("/prospects/:id/outreach", c.outreach.History)
		authorized.GET("/outreach/templates", c.outreach.Templates)

		authorized.GET("/sync/status", c.sync.Status)
		authorized.POST("/sync/drain", c.sync.Drain)
		authorized.DELETE("/sync/queue/:id", c.sync.Discard)

		authorized.GET("/notifications", c.notification.List)
		authorized.POST("/notifications/:id/read", c.notification.MarkRead)
	}
}
