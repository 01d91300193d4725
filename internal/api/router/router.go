package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "subleet-admin/docs"
	"subleet-admin/internal/api/handler"
	"subleet-admin/internal/api/middleware"
	"subleet-admin/internal/pkg/config"
	"subleet-admin/internal/pkg/metrics"
	"subleet-admin/internal/service"
	"subleet-admin/pkg/utils"
)

// Services 路由依赖的业务服务
type Services struct {
	Projects service.ProjectService
	APIKeys  service.APIKeyService
	Metrics  *metrics.Metrics
}

// Setup 设置路由
func Setup(cfg *config.Config, svc Services, logger *zap.Logger) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidations(v); err != nil {
			logger.Warn("注册自定义校验规则失败", zap.Error(err))
		}
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowOrigins))
	if svc.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(svc.Metrics))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && svc.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(svc.Metrics.Handler()))
	}

	// Swagger API 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	projectHandler := handler.NewProjectHandler(svc.Projects)
	apiKeyHandler := handler.NewAPIKeyHandler(svc.APIKeys)
	gatewayHandler := handler.NewGatewayHandler()

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 网关, 使用项目密钥认证
		gateway := v1.Group("/gateway")
		gateway.Use(middleware.APIKeyMiddleware(svc.APIKeys))
		{
			gateway.GET("/ping", gatewayHandler.Ping)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware())
		{
			groupProjects := authed.Group("/projects")
			{
				groupProjects.POST("", projectHandler.Create)                       // 开通项目
				groupProjects.GET("", projectHandler.List)                          // 列表查询
				groupProjects.GET("/:id", projectHandler.GetByID)                   // 详情
				groupProjects.PUT("/:id/origin", projectHandler.UpdateOrigin)       // 修改来源
				groupProjects.PUT("/:id/active", projectHandler.SetActive)          // 启用/停用
				groupProjects.PUT("/:id/assistant", projectHandler.UpdateAssistant) // 修改助手
				groupProjects.DELETE("/:id", projectHandler.Delete)                 // 删除项目
				groupProjects.GET("/:id/runs", projectHandler.ListRuns)             // 运行记录

				// 项目密钥
				groupProjects.GET("/:id/api-key", apiKeyHandler.Reveal)
				groupProjects.GET("/:id/api-key/status", apiKeyHandler.Status)
				groupProjects.POST("/:id/api-key/mark-displayed", apiKeyHandler.MarkDisplayed)
				groupProjects.POST("/:id/api-key/rotate", apiKeyHandler.Rotate)
			}

			groupAdmin := authed.Group("/admin")
			{
				groupAdmin.POST("/reconcile", projectHandler.Reconcile) // 手动触发补偿
			}
		}
	}

	return r
}
