package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/planner"
	"github.com/voltroute/voltroute/internal/repository"
)

// 导航错误
var (
	ErrSessionConflict = errors.New("navigation session already active for vehicle")
	ErrSessionNotFound = errors.New("no navigation session for vehicle")
	ErrRouteNotFound   = errors.New("route not found")
)

// tick 内存储写入的超时上限
const storeWriteTimeout = 3 * time.Second

// RouteStore 路线持久化
type RouteStore interface {
	GetByID(ctx context.Context, id string) (*models.Route, error)
	UpdateStatus(ctx context.Context, id string, status string, active bool) error
}

// VehicleStore 车辆位置持久化
// 目标车辆不存在时 UpdatePosition 应为 no-op 而非报错
type VehicleStore interface {
	UpdatePosition(ctx context.Context, id string, lon, lat float64) error
}

// Publisher 事件发布接口，按车辆频道和车队频道两种寻址方式
// 发布为 fire-and-forget，失败由实现方记录
type Publisher interface {
	PublishToVehicle(vehicleID, event string, data interface{})
	PublishFleet(event string, data interface{})
}

// Manager 导航会话管理器
// 持有车辆标识到会话的内存映射，驱动每个活跃会话按固定周期推进
type Manager struct {
	logger       *zap.Logger
	routes       RouteStore
	vehicles     VehicleStore
	publisher    Publisher
	tickInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager 创建导航会话管理器
func NewManager(logger *zap.Logger, routes RouteStore, vehicles VehicleStore, publisher Publisher, tickInterval time.Duration) *Manager {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &Manager{
		logger:       logger,
		routes:       routes,
		vehicles:     vehicles,
		publisher:    publisher,
		tickInterval: tickInterval,
		sessions:     make(map[string]*Session),
	}
}

// Start 为车辆启动导航会话
// 车辆已有会话时返回 ErrSessionConflict，现有会话不受影响；
// 路线不存在或不属于该车辆时返回 ErrRouteNotFound
// 会话只在路线加载和轨迹规划全部成功后才插入会话表
func (m *Manager) Start(ctx context.Context, vehicleID, routeID string) (*Snapshot, error) {
	// 快速冲突检查，避免无谓的路线加载
	m.mu.RLock()
	_, exists := m.sessions[vehicleID]
	m.mu.RUnlock()
	if exists {
		return nil, ErrSessionConflict
	}

	route, err := m.routes.GetByID(ctx, routeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRouteNotFound
		}
		return nil, fmt.Errorf("load route: %w", err)
	}
	if route.VehicleID != vehicleID {
		return nil, ErrRouteNotFound
	}

	points, err := planner.Plan(route.Coordinates, route.DurationSec)
	if err != nil {
		return nil, fmt.Errorf("plan movement: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[vehicleID]; exists {
		return nil, ErrSessionConflict
	}

	if err := m.routes.UpdateStatus(ctx, route.ID, models.RouteStatusAlive, true); err != nil {
		return nil, fmt.Errorf("mark route alive: %w", err)
	}
	route.Status = models.RouteStatusAlive
	route.Active = true

	s := newSession(vehicleID, route, points)
	s.gen = 1
	s.cancel = m.schedule(s, s.gen)
	m.sessions[vehicleID] = s

	m.logger.Info("Navigation started",
		zap.String("vehicle_id", vehicleID),
		zap.String("route_id", route.ID),
		zap.Int("total_points", len(points)))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// Pause 暂停车辆的导航会话，位置和下标保留
// 重复暂停安全：第二次调用仍会取消（已取消的）调度且不报错
func (m *Manager) Pause(vehicleID string) (*Snapshot, error) {
	s, err := m.get(vehicleID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, ErrSessionNotFound
	}

	s.cancelSchedule()
	if s.fsm.Current() != StatusPaused {
		if err := s.fsm.Event(context.Background(), eventPause); err != nil {
			return nil, fmt.Errorf("pause session: %w", err)
		}
	}

	m.logger.Info("Navigation paused",
		zap.String("vehicle_id", vehicleID),
		zap.Int("current_index", s.index))

	return s.snapshotLocked(), nil
}

// Resume 恢复已暂停的导航会话，从保留的下标继续
// 对活跃会话调用为 no-op，仍报告成功
func (m *Manager) Resume(vehicleID string) (*Snapshot, error) {
	s, err := m.get(vehicleID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, ErrSessionNotFound
	}
	if s.fsm.Current() == StatusActive {
		return s.snapshotLocked(), nil
	}

	if err := s.fsm.Event(context.Background(), eventResume); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	s.gen++
	s.cancel = m.schedule(s, s.gen)

	m.logger.Info("Navigation resumed",
		zap.String("vehicle_id", vehicleID),
		zap.Int("current_index", s.index))

	return s.snapshotLocked(), nil
}

// Stop 停止车辆的导航会话：取消调度、移除会话、标记路线结束并广播
func (m *Manager) Stop(ctx context.Context, vehicleID string) error {
	s, err := m.get(vehicleID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.cancelSchedule()
	s.terminated = true
	route := s.route
	s.mu.Unlock()

	m.remove(vehicleID, s)
	m.finishRoute(ctx, route.ID)

	now := time.Now()
	m.publisher.PublishToVehicle(vehicleID, EventNavigationStopped, NavigationEnded{
		RouteID:   route.ID,
		RouteName: route.Name,
		Timestamp: now,
	})
	m.publisher.PublishFleet(EventRouteStopped, RouteEnded{
		VehicleID: vehicleID,
		RouteID:   route.ID,
		RouteName: route.Name,
		Timestamp: now,
	})

	m.logger.Info("Navigation stopped",
		zap.String("vehicle_id", vehicleID),
		zap.String("route_id", route.ID))

	return nil
}

// GetActive 获取车辆当前会话的只读快照
func (m *Manager) GetActive(vehicleID string) (*Snapshot, error) {
	s, err := m.get(vehicleID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil, ErrSessionNotFound
	}
	return s.snapshotLocked(), nil
}

// ListAll 获取所有会话的只读快照
func (m *Manager) ListAll() []*Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	snapshots := make([]*Snapshot, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		if !s.terminated {
			snapshots = append(snapshots, s.snapshotLocked())
		}
		s.mu.Unlock()
	}
	return snapshots
}

// get 查找车辆的会话
func (m *Manager) get(vehicleID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[vehicleID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// remove 从会话表移除会话（仅当表中仍是同一个会话实例）
func (m *Manager) remove(vehicleID string, s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[vehicleID]; ok && cur == s {
		delete(m.sessions, vehicleID)
	}
	m.mu.Unlock()
}

// schedule 为会话创建周期推进调度，返回取消函数
// tick 携带创建时的调度代号，取消后的迟到 tick 会因代号不匹配被丢弃
func (m *Manager) schedule(s *Session, gen uint64) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(m.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tick(s, gen)
			}
		}
	}()

	return cancel
}

// tick 推进一个会话：读取当前移动点，尽力写入存储位置，广播进度，下标前进一格
// 下标到达终点时走完成边：取消调度、移除会话、标记路线结束并广播完成事件
// 整个 tick 体持有会话锁，与同一车辆的暂停/恢复/停止互斥
func (m *Manager) tick(s *Session, gen uint64) {
	s.mu.Lock()

	// 过期 tick：调度已被取消或替换，丢弃其效果
	if s.terminated || s.gen != gen || s.fsm.Current() != StatusActive {
		s.mu.Unlock()
		return
	}

	if s.index >= len(s.points) {
		s.cancelSchedule()
		s.terminated = true
		route := s.route
		vehicleID := s.vehicleID
		s.mu.Unlock()

		m.remove(vehicleID, s)
		m.finishRoute(context.Background(), route.ID)

		now := time.Now()
		m.publisher.PublishToVehicle(vehicleID, EventNavigationCompleted, NavigationEnded{
			RouteID:   route.ID,
			RouteName: route.Name,
			Timestamp: now,
		})
		m.publisher.PublishFleet(EventRouteCompleted, RouteEnded{
			VehicleID: vehicleID,
			RouteID:   route.ID,
			RouteName: route.Name,
			Timestamp: now,
		})

		m.logger.Info("Navigation completed",
			zap.String("vehicle_id", vehicleID),
			zap.String("route_id", route.ID))
		return
	}

	pos := s.points[s.index]
	s.position = pos
	idx := s.index
	total := len(s.points)
	route := s.route
	vehicleID := s.vehicleID

	// 存储写入失败只记录日志，推进不依赖存储可用性
	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	if err := m.vehicles.UpdatePosition(ctx, vehicleID, pos.Lon, pos.Lat); err != nil {
		m.logger.Warn("Failed to persist vehicle position",
			zap.String("vehicle_id", vehicleID),
			zap.Error(err))
	}
	cancel()

	progress := float64(idx) / float64(total) * 100
	m.publisher.PublishToVehicle(vehicleID, EventLocationUpdate, LocationUpdate{
		RouteID:                route.ID,
		RouteName:              route.Name,
		Position:               pos,
		Progress:               progress,
		CurrentIndex:           idx,
		TotalPoints:            total,
		EstimatedTimeRemaining: total - idx,
	})
	m.publisher.PublishFleet(EventLiveLocationUpdate, LiveLocationUpdate{
		VehicleID: vehicleID,
		RouteID:   route.ID,
		RouteName: route.Name,
		Position:  pos,
		Progress:  progress,
		Timestamp: time.Now(),
	})

	// 无论写存储和广播成败，下标都恰好前进一格
	s.index++
	s.mu.Unlock()
}

// finishRoute 标记路线结束，失败只记录日志（会话已经移除，无法回滚）
func (m *Manager) finishRoute(ctx context.Context, routeID string) {
	ctx, cancel := context.WithTimeout(ctx, storeWriteTimeout)
	defer cancel()
	if err := m.routes.UpdateStatus(ctx, routeID, models.RouteStatusDead, false); err != nil {
		m.logger.Warn("Failed to mark route dead",
			zap.String("route_id", routeID),
			zap.Error(err))
	}
}
