package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/navigation"
)

// EventTelemetryUpdate 车队频道的电量遥测事件
const EventTelemetryUpdate = "telemetry-update"

// 每个周期的电量步长（百分点）
const (
	drainPerTick   = 0.4 // 导航中耗电
	chargePerTick  = 1.2 // 充电中回升
	idleJitterSpan = 0.1 // 空闲时的随机漂移幅度

	lowBatteryLevel  = 20.0 // 低于此值进入充电
	fullBatteryLevel = 80.0 // 达到此值结束充电
)

// TelemetryUpdate 车队频道的遥测事件载荷
type TelemetryUpdate struct {
	VehicleID    string    `json:"vehicle_id"`
	BatteryLevel float64   `json:"battery_level"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

// VehicleTelemetryStore 车辆遥测持久化
type VehicleTelemetryStore interface {
	List(ctx context.Context) ([]*models.Vehicle, error)
	UpdateTelemetry(ctx context.Context, id string, batteryLevel float64, status string) error
}

// SessionReader 活跃导航会话查询
type SessionReader interface {
	GetActive(vehicleID string) (*navigation.Snapshot, error)
}

// FleetPublisher 车队频道广播
type FleetPublisher interface {
	PublishFleet(event string, data interface{})
}

// TelemetryService 电量遥测模拟器
// 周期性地让每辆车的电量随机游走：导航中耗电，充电中回升，空闲小幅漂移
type TelemetryService struct {
	logger    *zap.Logger
	vehicles  VehicleTelemetryStore
	sessions  SessionReader
	publisher FleetPublisher
	interval  time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewTelemetryService 创建遥测模拟器
func NewTelemetryService(logger *zap.Logger, vehicles VehicleTelemetryStore, sessions SessionReader, publisher FleetPublisher, interval time.Duration) *TelemetryService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &TelemetryService{
		logger:    logger,
		vehicles:  vehicles,
		sessions:  sessions,
		publisher: publisher,
		interval:  interval,
	}
}

// Start 启动模拟循环
func (s *TelemetryService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("Telemetry simulator started", zap.Duration("interval", s.interval))
}

// Stop 停止模拟循环并等待退出
func (s *TelemetryService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Telemetry simulator stopped")
}

func (s *TelemetryService) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.step(ctx)
		}
	}
}

// step 对每辆车走一步电量游走并广播
func (s *TelemetryService) step(ctx context.Context) {
	vehicles, err := s.vehicles.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to list vehicles for telemetry", zap.Error(err))
		return
	}

	for _, v := range vehicles {
		battery, status := s.nextState(v)

		if err := s.vehicles.UpdateTelemetry(ctx, v.ID, battery, status); err != nil {
			s.logger.Warn("Failed to persist telemetry",
				zap.String("vehicle_id", v.ID),
				zap.Error(err))
		}

		s.publisher.PublishFleet(EventTelemetryUpdate, TelemetryUpdate{
			VehicleID:    v.ID,
			BatteryLevel: battery,
			Status:       status,
			Timestamp:    time.Now(),
		})
	}
}

// nextState 计算车辆的下一个电量和状态
func (s *TelemetryService) nextState(v *models.Vehicle) (float64, string) {
	battery := v.BatteryLevel

	if _, err := s.sessions.GetActive(v.ID); err == nil {
		return clampBattery(battery - drainPerTick), models.VehicleStatusNavigating
	}

	switch {
	case v.Status == models.VehicleStatusCharging && battery < fullBatteryLevel:
		return clampBattery(battery + chargePerTick), models.VehicleStatusCharging
	case battery < lowBatteryLevel:
		return clampBattery(battery + chargePerTick), models.VehicleStatusCharging
	default:
		jitter := (rand.Float64()*2 - 1) * idleJitterSpan
		return clampBattery(battery + jitter), models.VehicleStatusIdle
	}
}

func clampBattery(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
