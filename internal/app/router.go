package app

import (
	"basebuilder_backend/docs"
	"basebuilder_backend/internal/config"
	"basebuilder_backend/internal/middleware"
	"basebuilder_backend/internal/model"
	"basebuilder_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由：学习会话与掌握度
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 学习会话
		authGroup.POST("/sessions", c.session.StartSession)
		authGroup.GET("/sessions/:id/next", c.session.NextItem)
		authGroup.POST("/sessions/:id/attempts", c.session.SubmitAttempt)
		authGroup.POST("/sessions/:id/summary", c.session.Summarize)

		// 掌握度查询与重算（重算是修复入口，仅教师/管理员可触发）
		authGroup.GET("/proficiency/items/:itemId", c.proficiency.GetItemProficiency)
		authGroup.GET("/proficiency/categories/:categoryId", c.proficiency.GetCategoryProficiency)
		authGroup.GET("/proficiency/collections/:collectionId", c.proficiency.GetCollectionProficiency)
		authGroup.POST("/proficiency/categories/:categoryId/recompute",
			middleware.RoleMiddleware(model.Teacher), c.proficiency.RecomputeCategory)
		authGroup.POST("/proficiency/collections/:collectionId/recompute",
			middleware.RoleMiddleware(model.Teacher), c.proficiency.RecomputeCollection)

		// 知识目录（只读）
		authGroup.GET("/categories", c.catalog.ListCategories)
		authGroup.GET("/categories/:id/items", c.catalog.ListCategoryItems)
		authGroup.GET("/collections/:id/items", c.catalog.ListCollectionItems)
		authGroup.GET("/items/:id", c.catalog.GetItem)
	}
}
