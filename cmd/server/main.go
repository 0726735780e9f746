package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voltroute/voltroute/internal/api/handlers"
	"github.com/voltroute/voltroute/internal/api/opencharge"
	"github.com/voltroute/voltroute/internal/api/osrm"
	"github.com/voltroute/voltroute/internal/config"
	"github.com/voltroute/voltroute/internal/locator"
	"github.com/voltroute/voltroute/internal/navigation"
	"github.com/voltroute/voltroute/internal/repository"
	"github.com/voltroute/voltroute/internal/service"
	"github.com/voltroute/voltroute/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting VoltRoute", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	routeRepo := repository.NewRouteRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	stationRepo := repository.NewStationRepository(db)

	// 创建外部服务客户端
	osrmClient := osrm.NewClient(cfg.OSRMBaseURL, logger)
	chargeMapClient := opencharge.NewClient(cfg.ChargeMapAPIURL, cfg.ChargeMapAPIKey, logger)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	// 创建导航会话管理器
	navManager := navigation.NewManager(logger, routeRepo, vehicleRepo, wsHub, cfg.TickInterval)

	// 车队频道新连接的初始数据
	wsHub.SetInitDataProvider(func() *ws.InitData {
		vehicles, err := vehicleRepo.List(context.Background())
		if err != nil {
			logger.Warn("Failed to load vehicles for init data", zap.Error(err))
			vehicles = nil
		}
		return &ws.InitData{
			Vehicles: vehicles,
			Sessions: navManager.ListAll(),
		}
	})

	// 创建业务服务
	stationLocator := locator.New(logger, stationRepo)
	routeService := service.NewRouteService(logger, osrmClient, routeRepo, vehicleRepo, stationLocator)
	syncService := service.NewSyncService(logger, chargeMapClient, stationRepo)

	// 启动电量遥测模拟
	telemetryService := service.NewTelemetryService(logger, vehicleRepo, navManager, wsHub, cfg.TelemetryInterval)
	if cfg.TelemetryEnabled {
		telemetryService.Start(ctx)
	}

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(
		logger,
		routeService,
		syncService,
		navManager,
		vehicleRepo,
		stationRepo,
		wsHub,
	)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止后台服务
	telemetryService.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
