package server

import (
	"helium-ledger/internal/handler"
	"helium-ledger/internal/handler/response"
	"helium-ledger/internal/service"

	"helium-ledger/pkg/monitor"
	"helium-ledger/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewHTTPRouter 初始化本地签名桥接的 Gin Engine
func NewHTTPRouter(svc service.SignerService) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()
	validator.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 注册 API 路由组
	signer := handler.NewSignerHandler(svc)
	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})

		api.GET("/version", signer.Version)
		api.GET("/address", signer.Address)
		api.GET("/balance", signer.Balance)
		api.POST("/pay", signer.Pay)

		validator := api.Group("/validator")
		validator.POST("/stake", signer.Stake)
		validator.POST("/unstake", signer.Unstake)
		validator.POST("/transfer", signer.CreateTransfer)
		validator.POST("/transfer/accept", signer.AcceptTransfer)
	}

	return r
}
