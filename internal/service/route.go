package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/api/osrm"
	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/repository"
)

// ErrVehicleNotFound 车辆不存在
var ErrVehicleNotFound = errors.New("vehicle not found")

// RoutePlanner 路线规划提供方
type RoutePlanner interface {
	Route(ctx context.Context, waypoints []models.Coordinate) (*osrm.RouteResult, error)
}

// RouteStore 路线持久化
type RouteStore interface {
	Create(ctx context.Context, route *models.Route) error
	GetByID(ctx context.Context, id string) (*models.Route, error)
	ListByVehicleID(ctx context.Context, vehicleID string) ([]*models.Route, error)
}

// VehicleReader 车辆查询
type VehicleReader interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
}

// StationFinder 沿路线的充电站查询
type StationFinder interface {
	FindAlongRoute(ctx context.Context, coords []models.Coordinate, maxDistanceKm float64, maxStations int) ([]*models.RouteStationMatch, error)
}

// RouteService 路线服务：规划、持久化、沿线充电站
type RouteService struct {
	logger   *zap.Logger
	planner  RoutePlanner
	routes   RouteStore
	vehicles VehicleReader
	stations StationFinder
}

// NewRouteService 创建路线服务
func NewRouteService(logger *zap.Logger, planner RoutePlanner, routes RouteStore, vehicles VehicleReader, stations StationFinder) *RouteService {
	return &RouteService{
		logger:   logger,
		planner:  planner,
		routes:   routes,
		vehicles: vehicles,
		stations: stations,
	}
}

// Create 为车辆规划并保存一条新路线
// 途经点顺序: 起点, 途经点..., 终点
func (s *RouteService) Create(ctx context.Context, vehicleID, name string, waypoints []models.Coordinate) (*models.Route, error) {
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("load vehicle: %w", err)
	}

	result, err := s.planner.Route(ctx, waypoints)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	route := &models.Route{
		ID:          uuid.NewString(),
		VehicleID:   vehicleID,
		Name:        name,
		Coordinates: result.Coordinates,
		Steps:       result.Steps,
		DistanceKm:  result.DistanceKm,
		DurationSec: result.DurationSec,
		Status:      models.RouteStatusCreated,
		Active:      false,
	}

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}

	s.logger.Info("Route created",
		zap.String("route_id", route.ID),
		zap.String("vehicle_id", vehicleID),
		zap.Float64("distance_km", route.DistanceKm),
		zap.Int("coordinates", len(route.Coordinates)))
	return route, nil
}

// Get 按 ID 查询路线
func (s *RouteService) Get(ctx context.Context, id string) (*models.Route, error) {
	return s.routes.GetByID(ctx, id)
}

// ListByVehicle 查询车辆的所有路线
func (s *RouteService) ListByVehicle(ctx context.Context, vehicleID string) ([]*models.Route, error) {
	return s.routes.ListByVehicleID(ctx, vehicleID)
}

// StationsAlongRoute 查询路线沿途的充电站
func (s *RouteService) StationsAlongRoute(ctx context.Context, routeID string, maxDistanceKm float64, maxStations int) ([]*models.RouteStationMatch, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return s.stations.FindAlongRoute(ctx, route.Coordinates, maxDistanceKm, maxStations)
}
