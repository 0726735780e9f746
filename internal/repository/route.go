package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voltroute/voltroute/internal/models"
)

// RouteRepository 路线数据仓库
type RouteRepository struct {
	db *DB
}

// NewRouteRepository 创建路线仓库
func NewRouteRepository(db *DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create 创建路线
func (r *RouteRepository) Create(ctx context.Context, route *models.Route) error {
	query := `
		INSERT INTO routes (id, vehicle_id, name, coordinates, steps, distance_km, duration_sec, status, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	now := time.Now()
	_, err := r.db.Pool.Exec(ctx, query,
		route.ID,
		route.VehicleID,
		route.Name,
		route.Coordinates,
		route.Steps,
		route.DistanceKm,
		route.DurationSec,
		route.Status,
		route.Active,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}

	route.CreatedAt = now
	route.UpdatedAt = now
	return nil
}

// GetByID 通过 ID 获取路线
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*models.Route, error) {
	query := `
		SELECT id, vehicle_id, name, coordinates, steps, distance_km, duration_sec, status, active, created_at, updated_at
		FROM routes WHERE id = $1
	`
	route := &models.Route{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&route.ID,
		&route.VehicleID,
		&route.Name,
		&route.Coordinates,
		&route.Steps,
		&route.DistanceKm,
		&route.DurationSec,
		&route.Status,
		&route.Active,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get route by id: %w", err)
	}
	return route, nil
}

// ListByVehicleID 获取车辆的所有路线
func (r *RouteRepository) ListByVehicleID(ctx context.Context, vehicleID string) ([]*models.Route, error) {
	query := `
		SELECT id, vehicle_id, name, coordinates, steps, distance_km, duration_sec, status, active, created_at, updated_at
		FROM routes WHERE vehicle_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list routes by vehicle: %w", err)
	}
	defer rows.Close()

	var routes []*models.Route
	for rows.Next() {
		route := &models.Route{}
		err := rows.Scan(
			&route.ID,
			&route.VehicleID,
			&route.Name,
			&route.Coordinates,
			&route.Steps,
			&route.DistanceKm,
			&route.DurationSec,
			&route.Status,
			&route.Active,
			&route.CreatedAt,
			&route.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, route)
	}

	return routes, nil
}

// UpdateStatus 更新路线生命周期状态和激活标记
func (r *RouteRepository) UpdateStatus(ctx context.Context, id string, status string, active bool) error {
	query := `UPDATE routes SET status = $1, active = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.Pool.Exec(ctx, query, status, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update route status: %w", err)
	}
	return nil
}
