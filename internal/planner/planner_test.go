package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltroute/voltroute/internal/models"
)

func TestPlanEmptyRoute(t *testing.T) {
	_, err := Plan(nil, 60)
	assert.ErrorIs(t, err, ErrEmptyRoute)

	_, err = Plan([]models.Coordinate{{Lon: 0, Lat: 0}}, 60)
	assert.ErrorIs(t, err, ErrEmptyRoute)
}

func TestPlanPointCount(t *testing.T) {
	coords := []models.Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}

	points, err := Plan(coords, 120)
	require.NoError(t, err)
	assert.Len(t, points, 120)

	// 时长向上取整
	points, err = Plan(coords, 10.2)
	require.NoError(t, err)
	assert.Len(t, points, 11)

	// 点数不少于顶点数
	many := make([]models.Coordinate, 50)
	for i := range many {
		many[i] = models.Coordinate{Lon: float64(i), Lat: 0}
	}
	points, err = Plan(many, 5)
	require.NoError(t, err)
	assert.Len(t, points, 50)
}

func TestPlanInterpolation(t *testing.T) {
	coords := []models.Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}

	points, err := Plan(coords, 120)
	require.NoError(t, err)

	assert.Equal(t, models.Coordinate{Lon: 0, Lat: 0}, points[0])
	assert.Equal(t, models.Coordinate{Lon: 0, Lat: 1}, points[119])
	assert.InDelta(t, 0.504, points[60].Lat, 0.001)
	assert.Equal(t, 0.0, points[60].Lon)
}

func TestPlanMonotonicProgress(t *testing.T) {
	coords := []models.Coordinate{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 2, Lat: 0}}

	points, err := Plan(coords, 30)
	require.NoError(t, err)

	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Lon, points[i-1].Lon)
	}
}

func TestPlanDeterministic(t *testing.T) {
	coords := []models.Coordinate{{Lon: 116.39, Lat: 39.90}, {Lon: 121.47, Lat: 31.23}}

	first, err := Plan(coords, 90)
	require.NoError(t, err)
	second, err := Plan(coords, 90)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
