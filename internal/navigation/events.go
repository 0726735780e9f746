package navigation

import (
	"time"

	"github.com/voltroute/voltroute/internal/models"
)

// 广播事件类型
const (
	EventLocationUpdate      = "location-update"      // 车辆频道：位置推进
	EventLiveLocationUpdate  = "live-location-update" // 车队频道：位置推进
	EventNavigationCompleted = "navigation-completed" // 车辆频道：自然完成
	EventRouteCompleted      = "route-completed"      // 车队频道：自然完成
	EventNavigationStopped   = "navigation-stopped"   // 车辆频道：手动停止
	EventRouteStopped        = "route-stopped"        // 车队频道：手动停止
)

// LocationUpdate 车辆频道的位置推进事件
type LocationUpdate struct {
	RouteID                string            `json:"route_id"`
	RouteName              string            `json:"route_name"`
	Position               models.Coordinate `json:"position"`
	Progress               float64           `json:"progress"`
	CurrentIndex           int               `json:"current_index"`
	TotalPoints            int               `json:"total_points"`
	EstimatedTimeRemaining int               `json:"estimated_time_remaining"` // 剩余点数
}

// LiveLocationUpdate 车队频道的位置推进事件
type LiveLocationUpdate struct {
	VehicleID string            `json:"vehicle_id"`
	RouteID   string            `json:"route_id"`
	RouteName string            `json:"route_name"`
	Position  models.Coordinate `json:"position"`
	Progress  float64           `json:"progress"`
	Timestamp time.Time         `json:"timestamp"`
}

// NavigationEnded 车辆频道的结束事件（完成或停止）
type NavigationEnded struct {
	RouteID   string    `json:"route_id"`
	RouteName string    `json:"route_name"`
	Timestamp time.Time `json:"timestamp"`
}

// RouteEnded 车队频道的结束事件（完成或停止）
type RouteEnded struct {
	VehicleID string    `json:"vehicle_id"`
	RouteID   string    `json:"route_id"`
	RouteName string    `json:"route_name"`
	Timestamp time.Time `json:"timestamp"`
}
