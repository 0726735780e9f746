package models

import "time"

// 车辆状态常量
const (
	VehicleStatusIdle       = "idle"
	VehicleStatusNavigating = "navigating"
	VehicleStatusCharging   = "charging"
)

// Vehicle 车队车辆
type Vehicle struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Model        string    `json:"model" db:"model"`
	PlateNumber  string    `json:"plate_number" db:"plate_number"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	BatteryLevel float64   `json:"battery_level" db:"battery_level"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Position 车辆当前位置
func (v *Vehicle) Position() Coordinate {
	return Coordinate{Lon: v.Longitude, Lat: v.Latitude}
}
