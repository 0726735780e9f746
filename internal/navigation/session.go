package navigation

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/voltroute/voltroute/internal/models"
)

// 会话状态常量
const (
	StatusActive = "active"
	StatusPaused = "paused"
)

// 会话事件常量
const (
	eventPause  = "pause"
	eventResume = "resume"
)

// Session 单辆车的导航会话（内存态，随停止或完成销毁）
// 不变式：任意时刻每个车辆标识至多存在一个会话
type Session struct {
	mu sync.Mutex

	vehicleID string
	route     *models.Route
	points    []models.Coordinate // 移动点序列，创建后不再修改
	index     int                 // 当前移动点下标，活跃时单调递增
	position  models.Coordinate
	startedAt time.Time
	fsm       *fsm.FSM

	// gen 为调度代号：每次暂停/恢复/停止/完成递增一次，
	// 携带过期代号的迟到 tick 直接丢弃
	gen        uint64
	cancel     context.CancelFunc // 当前调度的取消函数，仅活跃时非 nil
	terminated bool               // 已停止或完成，等待从会话表移除
}

func newSession(vehicleID string, route *models.Route, points []models.Coordinate) *Session {
	s := &Session{
		vehicleID: vehicleID,
		route:     route,
		points:    points,
		position:  points[0],
		startedAt: time.Now(),
	}

	s.fsm = fsm.NewFSM(
		StatusActive,
		fsm.Events{
			{Name: eventPause, Src: []string{StatusActive}, Dst: StatusPaused},
			{Name: eventResume, Src: []string{StatusPaused}, Dst: StatusActive},
		},
		nil,
	)

	return s
}

// cancelSchedule 取消当前调度并使在途 tick 过期
// 调用方必须持有 s.mu
func (s *Session) cancelSchedule() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// snapshotLocked 生成只读快照，调用方必须持有 s.mu
func (s *Session) snapshotLocked() *Snapshot {
	progress := float64(s.index) / float64(len(s.points)) * 100
	return &Snapshot{
		VehicleID:    s.vehicleID,
		RouteID:      s.route.ID,
		RouteName:    s.route.Name,
		Status:       s.fsm.Current(),
		CurrentIndex: s.index,
		TotalPoints:  len(s.points),
		Position:     s.position,
		Progress:     progress,
		StartedAt:    s.startedAt,
	}
}

// Snapshot 会话只读快照，供状态查询使用
type Snapshot struct {
	VehicleID    string            `json:"vehicle_id"`
	RouteID      string            `json:"route_id"`
	RouteName    string            `json:"route_name"`
	Status       string            `json:"status"`
	CurrentIndex int               `json:"current_index"`
	TotalPoints  int               `json:"total_points"`
	Position     models.Coordinate `json:"position"`
	Progress     float64           `json:"progress"`
	StartedAt    time.Time         `json:"started_at"`
}
