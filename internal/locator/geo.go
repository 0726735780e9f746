package locator

import (
	"math"

	"github.com/voltroute/voltroute/internal/models"
)

// 地球半径（公里）
const earthRadiusKm = 6371

// HaversineKm 计算两个坐标间的大圆距离（公里）
func HaversineKm(a, b models.Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// nearestOnRoute 暴力扫描路线顶点，返回距离 p 最近的顶点下标和距离（公里）
func nearestOnRoute(coords []models.Coordinate, p models.Coordinate) (int, float64) {
	bestIdx := 0
	bestDist := math.MaxFloat64
	for i, c := range coords {
		if d := HaversineKm(c, p); d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return bestIdx, bestDist
}

// boundingBox 计算路线的轴对齐包围盒
func boundingBox(coords []models.Coordinate) (minLon, minLat, maxLon, maxLat float64) {
	minLon, maxLon = coords[0].Lon, coords[0].Lon
	minLat, maxLat = coords[0].Lat, coords[0].Lat
	for _, c := range coords[1:] {
		minLon = math.Min(minLon, c.Lon)
		maxLon = math.Max(maxLon, c.Lon)
		minLat = math.Min(minLat, c.Lat)
		maxLat = math.Max(maxLat, c.Lat)
	}
	return minLon, minLat, maxLon, maxLat
}

// spacedSubset 从按路线位置排序的匹配中选出 k 个大致均匀分布的元素
// 保证结果沿路线展开，而不是聚集在最先匹配的路段
func spacedSubset(matches []*models.RouteStationMatch, k int) []*models.RouteStationMatch {
	if k <= 0 || len(matches) <= k {
		return matches
	}

	step := len(matches) / k
	selected := make([]*models.RouteStationMatch, 0, k)
	for i := 0; i < k; i++ {
		idx := i * step
		if idx > len(matches)-1 {
			idx = len(matches) - 1
		}
		selected = append(selected, matches[idx])
	}
	return selected
}
