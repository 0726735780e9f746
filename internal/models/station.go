package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringList 字符串列表，以 JSONB 存储到数据库
type StringList []string

// Value 实现 driver.Valuer 接口
func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// ChargingStation 充电站
// 通过外部目录批量摄取，定位器只读
type ChargingStation struct {
	ID             int64      `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Address        string     `json:"address" db:"address"`
	Latitude       float64    `json:"latitude" db:"latitude"`
	Longitude      float64    `json:"longitude" db:"longitude"`
	ConnectorTypes StringList `json:"connector_types" db:"connector_types"`
	PowerKW        float64    `json:"power_kw" db:"power_kw"`
	Operator       string     `json:"operator" db:"operator"`
	IsOperational  bool       `json:"is_operational" db:"is_operational"`
	CostPerKwh     *float64   `json:"cost_per_kwh,omitempty" db:"cost_per_kwh"`
	Amenities      StringList `json:"amenities,omitempty" db:"amenities"`
	Rating         *float64   `json:"rating,omitempty" db:"rating"`
	Source         string     `json:"source" db:"source"`
	ExternalID     string     `json:"external_id" db:"external_id"`
	LastSyncedAt   time.Time  `json:"last_synced_at" db:"last_synced_at"`
}

// Location 充电站坐标（经度在前）
func (s *ChargingStation) Location() Coordinate {
	return Coordinate{Lon: s.Longitude, Lat: s.Latitude}
}

// RouteStationMatch 投影到路线上的充电站匹配结果
// 每次路线充电站查询时临时生成
type RouteStationMatch struct {
	ChargingStation
	NearestRouteIndex      int        `json:"nearest_route_index"`
	NearestRouteCoordinate Coordinate `json:"nearest_route_coordinate"`
	DistanceFromRouteKm    float64    `json:"distance_from_route_km"`
}
