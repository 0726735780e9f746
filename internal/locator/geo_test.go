package locator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voltroute/voltroute/internal/models"
)

func TestHaversineKm(t *testing.T) {
	a := models.Coordinate{Lon: 0, Lat: 0}

	assert.Equal(t, 0.0, HaversineKm(a, a))

	// 赤道上 1 度纬度约 111.19 公里
	b := models.Coordinate{Lon: 0, Lat: 1}
	assert.InDelta(t, 111.19, HaversineKm(a, b), 0.1)

	// 对称性
	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
}

func TestNearestOnRoute(t *testing.T) {
	route := []models.Coordinate{{Lon: 0, Lat: 0}, {Lon: 10, Lat: 0}}

	idx, dist := nearestOnRoute(route, models.Coordinate{Lon: 0, Lat: 0})
	assert.Equal(t, 0, idx)
	assert.Equal(t, 0.0, dist)

	idx, _ = nearestOnRoute(route, models.Coordinate{Lon: 9.5, Lat: 0.01})
	assert.Equal(t, 1, idx)
}

func TestBoundingBox(t *testing.T) {
	route := []models.Coordinate{
		{Lon: 2, Lat: -1},
		{Lon: -3, Lat: 5},
		{Lon: 7, Lat: 0},
	}

	minLon, minLat, maxLon, maxLat := boundingBox(route)
	assert.Equal(t, -3.0, minLon)
	assert.Equal(t, -1.0, minLat)
	assert.Equal(t, 7.0, maxLon)
	assert.Equal(t, 5.0, maxLat)
}

func makeMatches(n int) []*models.RouteStationMatch {
	matches := make([]*models.RouteStationMatch, n)
	for i := range matches {
		matches[i] = &models.RouteStationMatch{
			ChargingStation:   models.ChargingStation{ID: int64(i + 1), Name: fmt.Sprintf("station-%d", i)},
			NearestRouteIndex: i,
		}
	}
	return matches
}

func TestSpacedSubset(t *testing.T) {
	// 12 个按路线位置排序的匹配取 4 个 → 下标 0, 3, 6, 9
	selected := spacedSubset(makeMatches(12), 4)
	assert.Len(t, selected, 4)

	var indices []int
	for _, m := range selected {
		indices = append(indices, m.NearestRouteIndex)
	}
	assert.Equal(t, []int{0, 3, 6, 9}, indices)
}

func TestSpacedSubsetSmallInput(t *testing.T) {
	matches := makeMatches(3)

	selected := spacedSubset(matches, 4)
	assert.Equal(t, matches, selected)

	selected = spacedSubset(matches, 3)
	assert.Equal(t, matches, selected)
}

func TestSpacedSubsetPreservesOrder(t *testing.T) {
	selected := spacedSubset(makeMatches(23), 5)
	assert.Len(t, selected, 5)

	for i := 1; i < len(selected); i++ {
		assert.Greater(t, selected[i].NearestRouteIndex, selected[i-1].NearestRouteIndex)
	}
	// 覆盖接近首尾的范围
	assert.Equal(t, 0, selected[0].NearestRouteIndex)
	assert.GreaterOrEqual(t, selected[len(selected)-1].NearestRouteIndex, 16)
}
