package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
)

// fakeStationStore 内存充电站存储
type fakeStationStore struct {
	stations    []*models.ChargingStation
	boundsErr   error
	nearbyErr   error
	boundsEmpty bool
	boundsCalls int
	nearbyCalls int
}

func (f *fakeStationStore) FindInBounds(_ context.Context, minLon, minLat, maxLon, maxLat float64, limit int) ([]*models.ChargingStation, error) {
	f.boundsCalls++
	if f.boundsErr != nil {
		return nil, f.boundsErr
	}
	if f.boundsEmpty {
		return nil, nil
	}

	var found []*models.ChargingStation
	for _, st := range f.stations {
		if !st.IsOperational {
			continue
		}
		if st.Longitude >= minLon && st.Longitude <= maxLon && st.Latitude >= minLat && st.Latitude <= maxLat {
			found = append(found, st)
			if len(found) >= limit {
				break
			}
		}
	}
	return found, nil
}

func (f *fakeStationStore) FindNearby(_ context.Context, lon, lat, maxDistanceKm float64, limit int) ([]*models.ChargingStation, error) {
	f.nearbyCalls++
	if f.nearbyErr != nil {
		return nil, f.nearbyErr
	}

	p := models.Coordinate{Lon: lon, Lat: lat}
	var found []*models.ChargingStation
	for _, st := range f.stations {
		if !st.IsOperational {
			continue
		}
		if HaversineKm(p, st.Location()) <= maxDistanceKm {
			found = append(found, st)
			if len(found) >= limit {
				break
			}
		}
	}
	return found, nil
}

func station(id int64, lon, lat float64) *models.ChargingStation {
	return &models.ChargingStation{
		ID:            id,
		Name:          "station",
		Longitude:     lon,
		Latitude:      lat,
		IsOperational: true,
	}
}

// 沿赤道的东西向测试路线
func testRoute(vertices int) []models.Coordinate {
	coords := make([]models.Coordinate, vertices)
	for i := range coords {
		coords[i] = models.Coordinate{Lon: float64(i) * 0.1, Lat: 0}
	}
	return coords
}

func TestFindAlongRouteShortRoute(t *testing.T) {
	store := &fakeStationStore{}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), []models.Coordinate{{Lon: 0, Lat: 0}}, 5, 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Zero(t, store.boundsCalls)
}

func TestFindAlongRoutePrimaryStrategy(t *testing.T) {
	store := &fakeStationStore{stations: []*models.ChargingStation{
		station(1, 0.5, 0.01),  // 靠近路线中段
		station(2, 0.1, 0.01),  // 靠近路线起点
		station(3, 40.0, 40.0), // 远离路线
	}}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), testRoute(11), 5, 4)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// 按路线位置升序
	assert.Equal(t, int64(2), matches[0].ID)
	assert.Equal(t, int64(1), matches[1].ID)
	assert.Less(t, matches[0].NearestRouteIndex, matches[1].NearestRouteIndex)

	// 未触发回退
	assert.Zero(t, store.nearbyCalls)
}

func TestFindAlongRouteDistanceFilter(t *testing.T) {
	// 站点 2 在包围盒内，但到最近路线顶点的真实距离超过上限
	store := &fakeStationStore{stations: []*models.ChargingStation{
		station(1, 0.5, 0.04), // 距最近顶点约 4.4 km
		station(2, 0.55, 0),   // 距最近顶点约 5.6 km
	}}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), testRoute(11), 5, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.InDelta(t, 4.4, matches[0].DistanceFromRouteKm, 0.1)
}

func TestFindAlongRouteProjection(t *testing.T) {
	store := &fakeStationStore{stations: []*models.ChargingStation{
		station(1, 0, 0),
	}}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), []models.Coordinate{{Lon: 0, Lat: 0}, {Lon: 10, Lat: 0}}, 5, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, 0, matches[0].NearestRouteIndex)
	assert.Equal(t, models.Coordinate{Lon: 0, Lat: 0}, matches[0].NearestRouteCoordinate)
	assert.Equal(t, 0.0, matches[0].DistanceFromRouteKm)
}

func TestFindAlongRouteFallbackOnEmptyPrimary(t *testing.T) {
	store := &fakeStationStore{
		boundsEmpty: true,
		stations: []*models.ChargingStation{
			station(1, 0.2, 0.01),
		},
	}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), testRoute(20), 5, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].ID)
	assert.Positive(t, store.nearbyCalls)
}

func TestFindAlongRouteFallbackOnPrimaryError(t *testing.T) {
	store := &fakeStationStore{
		boundsErr: errors.New("box query failed"),
		stations: []*models.ChargingStation{
			station(1, 0.2, 0.01),
		},
	}
	l := New(zap.NewNop(), store)

	// 主策略出错透明回退，不向调用方暴露
	matches, err := l.FindAlongRoute(context.Background(), testRoute(20), 5, 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestFindAlongRouteBothStrategiesFail(t *testing.T) {
	store := &fakeStationStore{
		boundsErr: errors.New("box query failed"),
		nearbyErr: errors.New("nearest query failed"),
	}
	l := New(zap.NewNop(), store)

	_, err := l.FindAlongRoute(context.Background(), testRoute(20), 5, 4)
	assert.Error(t, err)
}

func TestFindAlongRouteFallbackDeduplicates(t *testing.T) {
	// 同一个充电站靠近多个采样点，只保留一条
	store := &fakeStationStore{
		boundsEmpty: true,
		stations: []*models.ChargingStation{
			station(1, 0.05, 0.001),
		},
	}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), testRoute(5), 5, 4)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFindAlongRouteCapsStations(t *testing.T) {
	stations := make([]*models.ChargingStation, 12)
	for i := range stations {
		stations[i] = station(int64(i+1), float64(i)*0.1, 0.01)
	}
	store := &fakeStationStore{stations: stations}
	l := New(zap.NewNop(), store)

	matches, err := l.FindAlongRoute(context.Background(), testRoute(12), 5, 4)
	require.NoError(t, err)
	assert.Len(t, matches, 4)
}
