package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/config"
	"github.com/wfunc/campaign-tracker/internal/middleware"
	"github.com/wfunc/campaign-tracker/internal/storage"
	"github.com/wfunc/campaign-tracker/internal/tracker"
	"go.uber.org/zap"
)

// Router 面板页面和只读API的路由器
type Router struct {
	engine   *gin.Engine
	tracker  tracker.Service
	gate     *middleware.EditGate
	warnings []storage.Warning
	log      *zap.Logger
}

// NewRouter 创建路由器
// warnings是启动时后端选择留下的非致命警告，面板横幅展示
func NewRouter(svc tracker.Service, cfg *config.Config, warnings []storage.Warning, log *zap.Logger) *Router {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gate := middleware.NewEditGate(cfg.Tracker.EditKey)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		gate.Evaluate(),
	)

	router := &Router{
		engine:   engine,
		tracker:  svc,
		gate:     gate,
		warnings: warnings,
		log:      log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 面板页面
	r.engine.GET("/", r.dashboard)

	// GM编辑动作，全部在编辑门之后
	actions := r.engine.Group("/tracker")
	actions.Use(r.gate.RequireEdit())
	{
		actions.POST("/rows", r.addRow)
		actions.POST("/save", r.saveAll)
		actions.POST("/delete", r.deleteRows)
	}

	// CSV下载也是编辑模式专属
	r.engine.GET("/export.csv", r.gate.RequireEdit(), r.exportCSV)

	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 只读JSON接口，供机器人和覆盖层读取队伍状态
	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/roster", r.getRoster)
		v1.GET("/roster/:character", r.getCharacter)
	}

	// 接口文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
// @Summary 健康检查
// @Description 返回当前存储后端名称与可用状态
// @Tags System
// @Produce json
// @Success 200 {object} tracker.Health
// @Failure 503 {object} tracker.Health
// @Router /health [get]
func (r *Router) healthCheck(c *gin.Context) {
	health := r.tracker.Ping(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting tracker server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试和外部http.Server）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
