package locator

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
)

// 默认查询参数
const (
	DefaultMaxDistanceKm = 5.0
	DefaultMaxStations   = 4

	// 每纬度约 111 公里，用于把距离转换为包围盒缓冲角度
	// 粗略近似，不考虑高纬度的经度压缩；采样最近邻回退策略
	// 正好覆盖该近似漏掉的情况
	kmPerDegree = 111.0

	// 包围盒查询超额拉取倍数，给后续过滤留余量
	overFetchFactor = 5

	// 回退策略沿路线的采样点数
	fallbackSamples = 10
)

// StationStore 充电站只读空间查询
type StationStore interface {
	FindInBounds(ctx context.Context, minLon, minLat, maxLon, maxLat float64, limit int) ([]*models.ChargingStation, error)
	FindNearby(ctx context.Context, lon, lat, maxDistanceKm float64, limit int) ([]*models.ChargingStation, error)
}

// Locator 路线附近充电站定位器
type Locator struct {
	logger *zap.Logger
	store  StationStore
}

// New 创建定位器
func New(logger *zap.Logger, store StationStore) *Locator {
	return &Locator{logger: logger, store: store}
}

// FindAlongRoute 查找并排序路线附近的可用充电站
// 结果按路线位置升序，最多 maxStations 个，沿路线均匀分布
// 主策略为缓冲包围盒查询；主策略出错或无结果时回退到采样最近邻查询
func (l *Locator) FindAlongRoute(ctx context.Context, coords []models.Coordinate, maxDistanceKm float64, maxStations int) ([]*models.RouteStationMatch, error) {
	if len(coords) < 2 {
		return nil, nil
	}
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	if maxStations <= 0 {
		maxStations = DefaultMaxStations
	}

	matches, err := l.findByBoundingBox(ctx, coords, maxDistanceKm, maxStations)
	if err != nil {
		l.logger.Warn("Bounding box strategy failed, falling back to sampled nearest",
			zap.Error(err))
		return l.findBySampledNearest(ctx, coords, maxDistanceKm, maxStations)
	}
	if len(matches) == 0 {
		l.logger.Debug("Bounding box strategy found no stations, trying sampled nearest")
		return l.findBySampledNearest(ctx, coords, maxDistanceKm, maxStations)
	}

	return matches, nil
}

// findByBoundingBox 主策略：扩展包围盒范围查询
func (l *Locator) findByBoundingBox(ctx context.Context, coords []models.Coordinate, maxDistanceKm float64, maxStations int) ([]*models.RouteStationMatch, error) {
	minLon, minLat, maxLon, maxLat := boundingBox(coords)
	buffer := maxDistanceKm / kmPerDegree

	candidates, err := l.store.FindInBounds(ctx,
		minLon-buffer, minLat-buffer, maxLon+buffer, maxLat+buffer,
		overFetchFactor*maxStations)
	if err != nil {
		return nil, err
	}

	return l.projectAndSelect(coords, candidates, maxDistanceKm, maxStations), nil
}

// findBySampledNearest 回退策略：沿路线均匀采样约 10 个顶点，
// 对每个采样点做半径最近邻查询，按充电站 ID 去重
func (l *Locator) findBySampledNearest(ctx context.Context, coords []models.Coordinate, maxDistanceKm float64, maxStations int) ([]*models.RouteStationMatch, error) {
	step := len(coords) / fallbackSamples
	if step < 1 {
		step = 1
	}

	seen := make(map[int64]bool)
	var candidates []*models.ChargingStation
	for i := 0; i < len(coords); i += step {
		found, err := l.store.FindNearby(ctx, coords[i].Lon, coords[i].Lat, maxDistanceKm, maxStations)
		if err != nil {
			return nil, err
		}
		for _, st := range found {
			if seen[st.ID] {
				continue
			}
			seen[st.ID] = true
			candidates = append(candidates, st)
		}
	}

	return l.projectAndSelect(coords, candidates, maxDistanceKm, maxStations), nil
}

// projectAndSelect 将候选充电站投影到路线上，按真实距离过滤，
// 按路线位置排序后做均匀抽取
func (l *Locator) projectAndSelect(coords []models.Coordinate, candidates []*models.ChargingStation, maxDistanceKm float64, maxStations int) []*models.RouteStationMatch {
	var matches []*models.RouteStationMatch
	for _, st := range candidates {
		idx, dist := nearestOnRoute(coords, st.Location())
		if dist > maxDistanceKm {
			continue
		}
		matches = append(matches, &models.RouteStationMatch{
			ChargingStation:        *st,
			NearestRouteIndex:      idx,
			NearestRouteCoordinate: coords[idx],
			DistanceFromRouteKm:    math.Round(dist*10) / 10,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].NearestRouteIndex < matches[j].NearestRouteIndex
	})

	return spacedSubset(matches, maxStations)
}
