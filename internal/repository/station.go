package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/voltroute/voltroute/internal/models"
)

// StationRepository 充电站数据仓库
type StationRepository struct {
	db *DB
}

// NewStationRepository 创建充电站仓库
func NewStationRepository(db *DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, address, latitude, longitude, connector_types, power_kw, operator, is_operational, cost_per_kwh, amenities, rating, source, external_id, last_synced_at`

func scanStation(row pgx.Row) (*models.ChargingStation, error) {
	st := &models.ChargingStation{}
	err := row.Scan(
		&st.ID,
		&st.Name,
		&st.Address,
		&st.Latitude,
		&st.Longitude,
		&st.ConnectorTypes,
		&st.PowerKW,
		&st.Operator,
		&st.IsOperational,
		&st.CostPerKwh,
		&st.Amenities,
		&st.Rating,
		&st.Source,
		&st.ExternalID,
		&st.LastSyncedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Upsert 按外部标识创建或更新充电站（批量摄取用）
func (r *StationRepository) Upsert(ctx context.Context, st *models.ChargingStation) error {
	query := `
		INSERT INTO charging_stations (name, address, latitude, longitude, connector_types, power_kw, operator, is_operational, cost_per_kwh, amenities, rating, source, external_id, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			connector_types = EXCLUDED.connector_types,
			power_kw = EXCLUDED.power_kw,
			operator = EXCLUDED.operator,
			is_operational = EXCLUDED.is_operational,
			cost_per_kwh = EXCLUDED.cost_per_kwh,
			amenities = EXCLUDED.amenities,
			rating = EXCLUDED.rating,
			last_synced_at = EXCLUDED.last_synced_at
		RETURNING id
	`
	if st.LastSyncedAt.IsZero() {
		st.LastSyncedAt = time.Now()
	}
	err := r.db.Pool.QueryRow(ctx, query,
		st.Name,
		st.Address,
		st.Latitude,
		st.Longitude,
		st.ConnectorTypes,
		st.PowerKW,
		st.Operator,
		st.IsOperational,
		st.CostPerKwh,
		st.Amenities,
		st.Rating,
		st.Source,
		st.ExternalID,
		st.LastSyncedAt,
	).Scan(&st.ID)

	if err != nil {
		return fmt.Errorf("upsert station: %w", err)
	}
	return nil
}

// GetByID 通过 ID 获取充电站
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.ChargingStation, error) {
	query := `SELECT ` + stationColumns + ` FROM charging_stations WHERE id = $1`
	st, err := scanStation(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get station by id: %w", err)
	}
	return st, nil
}

// List 获取充电站列表
func (r *StationRepository) List(ctx context.Context, limit, offset int) ([]*models.ChargingStation, error) {
	query := `SELECT ` + stationColumns + ` FROM charging_stations ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	return collectStations(rows)
}

// FindInBounds 查询矩形范围内可用的充电站
func (r *StationRepository) FindInBounds(ctx context.Context, minLon, minLat, maxLon, maxLat float64, limit int) ([]*models.ChargingStation, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM charging_stations
		WHERE is_operational = true
		  AND longitude BETWEEN $1 AND $2
		  AND latitude BETWEEN $3 AND $4
		LIMIT $5
	`
	rows, err := r.db.Pool.Query(ctx, query, minLon, maxLon, minLat, maxLat, limit)
	if err != nil {
		return nil, fmt.Errorf("find stations in bounds: %w", err)
	}
	defer rows.Close()

	return collectStations(rows)
}

// FindNearby 按 Haversine 距离查询某点附近可用的充电站
// maxDistanceKm 为距离上限，结果按距离升序
func (r *StationRepository) FindNearby(ctx context.Context, lon, lat, maxDistanceKm float64, limit int) ([]*models.ChargingStation, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM (
			SELECT *,
				6371 * acos(
					LEAST(1.0, cos(radians($2)) * cos(radians(latitude)) * cos(radians(longitude) - radians($1))
					+ sin(radians($2)) * sin(radians(latitude)))
				) AS distance_km
			FROM charging_stations
			WHERE is_operational = true
		) s
		WHERE distance_km <= $3
		ORDER BY distance_km
		LIMIT $4
	`
	rows, err := r.db.Pool.Query(ctx, query, lon, lat, maxDistanceKm, limit)
	if err != nil {
		return nil, fmt.Errorf("find stations nearby: %w", err)
	}
	defer rows.Close()

	return collectStations(rows)
}

// Count 统计充电站数量
func (r *StationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM charging_stations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stations: %w", err)
	}
	return count, nil
}

func collectStations(rows pgx.Rows) ([]*models.ChargingStation, error) {
	var stations []*models.ChargingStation
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, nil
}
