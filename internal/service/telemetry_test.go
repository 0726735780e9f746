package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/navigation"
)

type fakeTelemetryStore struct {
	mu       sync.Mutex
	vehicles []*models.Vehicle
	updates  map[string]TelemetryUpdate
}

func newFakeTelemetryStore(vehicles ...*models.Vehicle) *fakeTelemetryStore {
	return &fakeTelemetryStore{vehicles: vehicles, updates: make(map[string]TelemetryUpdate)}
}

func (f *fakeTelemetryStore) List(_ context.Context) ([]*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicles, nil
}

func (f *fakeTelemetryStore) UpdateTelemetry(_ context.Context, id string, batteryLevel float64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = TelemetryUpdate{VehicleID: id, BatteryLevel: batteryLevel, Status: status}
	return nil
}

func (f *fakeTelemetryStore) update(id string) (TelemetryUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.updates[id]
	return u, ok
}

type fakeSessionReader struct {
	active map[string]bool
}

func (f *fakeSessionReader) GetActive(vehicleID string) (*navigation.Snapshot, error) {
	if f.active[vehicleID] {
		return &navigation.Snapshot{VehicleID: vehicleID}, nil
	}
	return nil, navigation.ErrSessionNotFound
}

type fakeFleetPublisher struct {
	mu     sync.Mutex
	events []TelemetryUpdate
}

func (f *fakeFleetPublisher) PublishFleet(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event == EventTelemetryUpdate {
		f.events = append(f.events, data.(TelemetryUpdate))
	}
}

func (f *fakeFleetPublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestTelemetryStep(t *testing.T) {
	store := newFakeTelemetryStore(
		&models.Vehicle{ID: "veh-nav", BatteryLevel: 50, Status: models.VehicleStatusIdle},
		&models.Vehicle{ID: "veh-low", BatteryLevel: 10, Status: models.VehicleStatusIdle},
		&models.Vehicle{ID: "veh-charging", BatteryLevel: 60, Status: models.VehicleStatusCharging},
		&models.Vehicle{ID: "veh-idle", BatteryLevel: 70, Status: models.VehicleStatusIdle},
	)
	sessions := &fakeSessionReader{active: map[string]bool{"veh-nav": true}}
	pub := &fakeFleetPublisher{}
	svc := NewTelemetryService(zap.NewNop(), store, sessions, pub, time.Hour)

	svc.step(context.Background())

	// 导航中耗电
	u, ok := store.update("veh-nav")
	require.True(t, ok)
	assert.Equal(t, models.VehicleStatusNavigating, u.Status)
	assert.Less(t, u.BatteryLevel, 50.0)

	// 低电量进入充电
	u, _ = store.update("veh-low")
	assert.Equal(t, models.VehicleStatusCharging, u.Status)
	assert.Greater(t, u.BatteryLevel, 10.0)

	// 充电中持续回升
	u, _ = store.update("veh-charging")
	assert.Equal(t, models.VehicleStatusCharging, u.Status)
	assert.Greater(t, u.BatteryLevel, 60.0)

	// 空闲小幅漂移
	u, _ = store.update("veh-idle")
	assert.Equal(t, models.VehicleStatusIdle, u.Status)
	assert.InDelta(t, 70.0, u.BatteryLevel, idleJitterSpan)

	assert.Equal(t, 4, pub.count())
}

func TestTelemetryClamping(t *testing.T) {
	store := newFakeTelemetryStore(
		&models.Vehicle{ID: "veh-empty", BatteryLevel: 0.1, Status: models.VehicleStatusIdle},
	)
	sessions := &fakeSessionReader{active: map[string]bool{"veh-empty": true}}
	svc := NewTelemetryService(zap.NewNop(), store, sessions, &fakeFleetPublisher{}, time.Hour)

	svc.step(context.Background())

	u, _ := store.update("veh-empty")
	assert.Equal(t, 0.0, u.BatteryLevel)
}

func TestTelemetryStartStop(t *testing.T) {
	store := newFakeTelemetryStore(&models.Vehicle{ID: "veh-a", BatteryLevel: 50})
	sessions := &fakeSessionReader{active: map[string]bool{}}
	pub := &fakeFleetPublisher{}
	svc := NewTelemetryService(zap.NewNop(), store, sessions, pub, 10*time.Millisecond)

	svc.Start(context.Background())
	// 重复启动安全
	svc.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Greater(t, pub.count(), 0)

	svc.Stop()
	// 重复停止安全
	svc.Stop()
}
