package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 路线生命周期状态
const (
	RouteStatusCreated = "created" // 已创建，尚未开始导航
	RouteStatusAlive   = "alive"   // 导航进行中
	RouteStatusDead    = "dead"    // 导航已结束（完成或停止）
)

// Coordinate 地理坐标（经度在前，纬度在后）
// JSON 表示为 GeoJSON 风格的二元数组 [lon, lat]
type Coordinate struct {
	Lon float64
	Lat float64
}

// MarshalJSON 序列化为 [lon, lat]
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lon, c.Lat})
}

// UnmarshalJSON 从 [lon, lat] 反序列化
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("unmarshal coordinate: %w", err)
	}
	c.Lon = pair[0]
	c.Lat = pair[1]
	return nil
}

// CoordinateList 坐标序列，以 JSONB 存储到数据库
type CoordinateList []Coordinate

// Value 实现 driver.Valuer 接口
func (l CoordinateList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *CoordinateList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// RouteStep 路线分段元数据（来自路由规划服务）
type RouteStep struct {
	Instruction string  `json:"instruction,omitempty"` // 导航指令
	DistanceM   float64 `json:"distance_m"`            // 分段距离（米）
	DurationSec float64 `json:"duration_sec"`          // 分段耗时（秒）
}

// RouteStepList 分段序列，以 JSONB 存储到数据库
type RouteStepList []RouteStep

// Value 实现 driver.Valuer 接口
func (l RouteStepList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *RouteStepList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Route 路线
type Route struct {
	ID          string         `json:"id" db:"id"`
	VehicleID   string         `json:"vehicle_id" db:"vehicle_id"`
	Name        string         `json:"name" db:"name"`
	Coordinates CoordinateList `json:"coordinates" db:"coordinates"`
	Steps       RouteStepList  `json:"steps,omitempty" db:"steps"`
	DistanceKm  float64        `json:"distance_km" db:"distance_km"`
	DurationSec float64        `json:"duration_sec" db:"duration_sec"`
	Status      string         `json:"status" db:"status"`
	Active      bool           `json:"active" db:"active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
