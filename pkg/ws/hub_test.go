package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recvMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case payload := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func waitClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d", want)
}

func TestHubChannelRouting(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	vehA := NewClient(h, nil, "veh-a")
	vehB := NewClient(h, nil, "veh-b")
	fleet := NewClient(h, nil, ChannelFleet)
	vehA.Register()
	vehB.Register()
	fleet.Register()
	waitClientCount(t, h, 3)

	h.PublishToVehicle("veh-a", "location-update", map[string]int{"current_index": 7})

	msg := recvMessage(t, vehA)
	assert.Equal(t, "location-update", msg.Type)

	// 其他车辆和车队频道收不到
	assert.Empty(t, vehB.send)
	assert.Empty(t, fleet.send)

	h.PublishFleet("live-location-update", map[string]string{"vehicle_id": "veh-a"})
	msg = recvMessage(t, fleet)
	assert.Equal(t, "live-location-update", msg.Type)
	assert.Empty(t, vehA.send)
	assert.Empty(t, vehB.send)
}

func TestHubInitDataForFleetClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	h.SetInitDataProvider(func() *InitData {
		return &InitData{Vehicles: []string{"veh-a"}, Sessions: []string{}}
	})
	go h.Run()

	fleet := NewClient(h, nil, ChannelFleet)
	fleet.Register()
	waitClientCount(t, h, 1)

	msg := recvMessage(t, fleet)
	assert.Equal(t, MsgTypeInit, msg.Type)

	// 车辆频道客户端不收初始数据
	vehA := NewClient(h, nil, "veh-a")
	vehA.Register()
	waitClientCount(t, h, 2)
	assert.Empty(t, vehA.send)
}

func TestHubUnregister(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	c := NewClient(h, nil, ChannelFleet)
	c.Register()
	waitClientCount(t, h, 1)

	c.Unregister()
	waitClientCount(t, h, 0)

	// 通道已关闭
	_, open := <-c.send
	assert.False(t, open)
}