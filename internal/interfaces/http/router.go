package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/orris-inc/keyhub/docs"
	"github.com/orris-inc/keyhub/internal/infrastructure/ratelimit"
	"github.com/orris-inc/keyhub/internal/interfaces/http/middleware"
	"github.com/orris-inc/keyhub/internal/shared/utils"
)

const healthCheckTimeout = 2 * time.Second

// SetupRoutes configures all HTTP routes.
func (c *Container) SetupRoutes() error {
	if err := utils.RegisterValidators(); err != nil {
		return err
	}

	c.engine.Use(middleware.RequestID())
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.Logger(c.log.Named("http")))
	c.engine.Use(c.metrics.GinMiddleware())

	c.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	c.engine.GET("/health", c.healthCheck)
	c.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))

	api := c.engine.Group("/api/v1")
	c.setupKeyRoutes(api)
	c.setupBatchRoutes(api)
	c.setupViolationRoutes(api)
	c.setupProvisioningRoutes(api)
	return nil
}

func (c *Container) setupKeyRoutes(api *gin.RouterGroup) {
	keys := api.Group("/keys")
	{
		keys.GET("/:code", c.hdlrs.key.GetKey)
		keys.POST("/:code/activate", c.hdlrs.key.ActivateKey)
		keys.POST("/:code/transfer", c.hdlrs.key.TransferKey)
	}
}

func (c *Container) setupBatchRoutes(api *gin.RouterGroup) {
	batches := api.Group("/batches")
	{
		batches.POST("", c.hdlrs.batch.CreateBatch)
		batches.POST("/:id/payment", c.hdlrs.batch.CompletePayment)
	}
}

func (c *Container) setupViolationRoutes(api *gin.RouterGroup) {
	report := []gin.HandlerFunc{c.hdlrs.violation.Report}
	limits := ratelimit.Limits{
		PerMinute: c.cfg.Violation.ReportsPerMinute,
		PerHour:   c.cfg.Violation.ReportsPerHour,
	}
	if c.infra.limiter != nil && limits.Enabled() {
		limit := middleware.RateLimit(c.infra.limiter, limits, "violation-report", c.log.Named("ratelimit"))
		report = append([]gin.HandlerFunc{limit}, report...)
	}

	violations := api.Group("/violations")
	{
		violations.POST("/report", report...)
		violations.POST("/:id/ignore", c.hdlrs.violation.Ignore)
	}
}

func (c *Container) setupProvisioningRoutes(api *gin.RouterGroup) {
	servers := api.Group("/servers")
	{
		servers.POST("", c.hdlrs.server.ConfigureServer)
		servers.POST("/:id/check", c.hdlrs.server.CheckStatus)
		servers.POST("/:id/panel", c.hdlrs.server.SetPanel)
		servers.DELETE("/:id", c.hdlrs.server.DeleteServer)
	}

	api.POST("/panels/:id/token", c.hdlrs.server.UpdatePanelToken)
	api.POST("/server-users/:id/transfer", c.hdlrs.server.TransferServerUser)
}

// healthCheck reports liveness and whether the database and Redis answer.
func (c *Container) healthCheck(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := gin.H{"status": "ok", "database": "ok"}
	code := nethttp.StatusOK

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(reqCtx)
	}
	if err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = nethttp.StatusServiceUnavailable
	}

	if c.redis != nil {
		status["redis"] = "ok"
		if err := c.redis.Ping(reqCtx).Err(); err != nil {
			status["status"] = "degraded"
			status["redis"] = "unreachable"
			code = nethttp.StatusServiceUnavailable
		}
	}

	utils.SuccessResponse(ctx, code, "", status)
}
