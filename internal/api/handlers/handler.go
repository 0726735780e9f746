package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/navigation"
	"github.com/voltroute/voltroute/internal/repository"
	"github.com/voltroute/voltroute/internal/service"
	"github.com/voltroute/voltroute/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger       *zap.Logger
	routeService *service.RouteService
	syncService  *service.SyncService
	navManager   *navigation.Manager
	vehicleRepo  *repository.VehicleRepository
	stationRepo  *repository.StationRepository
	wsHub        *ws.Hub
	upgrader     websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	routeService *service.RouteService,
	syncService *service.SyncService,
	navManager *navigation.Manager,
	vehicleRepo *repository.VehicleRepository,
	stationRepo *repository.StationRepository,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:       logger,
		routeService: routeService,
		syncService:  syncService,
		navManager:   navManager,
		vehicleRepo:  vehicleRepo,
		stationRepo:  stationRepo,
		wsHub:        wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 路线
		api.POST("/routes", h.CreateRoute)
		api.GET("/routes/:id", h.GetRoute)
		api.GET("/routes/:id/stations", h.GetRouteStations)

		// 车辆
		api.GET("/vehicles", h.ListVehicles)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.PUT("/vehicles/:id", h.UpsertVehicle)
		api.GET("/vehicles/:id/routes", h.ListVehicleRoutes)

		// 导航
		api.POST("/vehicles/:id/navigation/start", h.StartNavigation)
		api.POST("/vehicles/:id/navigation/pause", h.PauseNavigation)
		api.POST("/vehicles/:id/navigation/resume", h.ResumeNavigation)
		api.POST("/vehicles/:id/navigation/stop", h.StopNavigation)
		api.GET("/vehicles/:id/navigation", h.GetNavigation)
		api.GET("/navigation/sessions", h.ListNavigationSessions)

		// 充电站
		api.GET("/stations", h.ListStations)
		api.GET("/stations/:id", h.GetStation)
		api.POST("/stations/sync", h.SyncStations)
	}

	// WebSocket
	r.GET("/ws", h.HandleVehicleWebSocket)
	r.GET("/ws/fleet", h.HandleFleetWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleVehicleWebSocket 车辆频道 WebSocket：只接收指定车辆的事件
func (h *Handler) HandleVehicleWebSocket(c *gin.Context) {
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
		return
	}
	h.serveWebSocket(c, vehicleID)
}

// HandleFleetWebSocket 车队频道 WebSocket：接收所有车辆的事件
func (h *Handler) HandleFleetWebSocket(c *gin.Context) {
	h.serveWebSocket(c, ws.ChannelFleet)
}

func (h *Handler) serveWebSocket(c *gin.Context, channel string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn, channel)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"ws_clients":      h.wsHub.ClientCount(),
		"active_sessions": len(h.navManager.ListAll()),
	})
}
