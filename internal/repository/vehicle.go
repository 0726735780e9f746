package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voltroute/voltroute/internal/models"
)

// VehicleRepository 车辆数据仓库
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Upsert 创建或更新车辆
func (r *VehicleRepository) Upsert(ctx context.Context, v *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, name, model, plate_number, latitude, longitude, battery_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			model = EXCLUDED.model,
			plate_number = EXCLUDED.plate_number,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if v.Status == "" {
		v.Status = models.VehicleStatusIdle
	}
	_, err := r.db.Pool.Exec(ctx, query,
		v.ID,
		v.Name,
		v.Model,
		v.PlateNumber,
		v.Latitude,
		v.Longitude,
		v.BatteryLevel,
		v.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert vehicle: %w", err)
	}

	v.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取车辆
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	query := `
		SELECT id, name, model, plate_number, latitude, longitude, battery_level, status, created_at, updated_at
		FROM vehicles WHERE id = $1
	`
	v := &models.Vehicle{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Name,
		&v.Model,
		&v.PlateNumber,
		&v.Latitude,
		&v.Longitude,
		&v.BatteryLevel,
		&v.Status,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get vehicle by id: %w", err)
	}
	return v, nil
}

// List 获取所有车辆
func (r *VehicleRepository) List(ctx context.Context) ([]*models.Vehicle, error) {
	query := `
		SELECT id, name, model, plate_number, latitude, longitude, battery_level, status, created_at, updated_at
		FROM vehicles ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		v := &models.Vehicle{}
		err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.Model,
			&v.PlateNumber,
			&v.Latitude,
			&v.Longitude,
			&v.BatteryLevel,
			&v.Status,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, nil
}

// UpdatePosition 更新车辆存储位置
// 目标车辆不存在时不报错（0 行受影响即为 no-op）
func (r *VehicleRepository) UpdatePosition(ctx context.Context, id string, lon, lat float64) error {
	query := `UPDATE vehicles SET longitude = $1, latitude = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.Pool.Exec(ctx, query, lon, lat, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update vehicle position: %w", err)
	}
	return nil
}

// UpdateTelemetry 更新车辆电量和状态
func (r *VehicleRepository) UpdateTelemetry(ctx context.Context, id string, batteryLevel float64, status string) error {
	query := `UPDATE vehicles SET battery_level = $1, status = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.Pool.Exec(ctx, query, batteryLevel, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update vehicle telemetry: %w", err)
	}
	return nil
}
