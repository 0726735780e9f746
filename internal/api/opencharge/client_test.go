package opencharge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const poiBody = `[
	{
		"ID": 101,
		"AddressInfo": {"Title": "City Garage", "AddressLine1": "1 Main St", "Town": "Springfield", "Latitude": 39.91, "Longitude": 116.40},
		"OperatorInfo": {"Title": "ChargeCo"},
		"StatusType": {"IsOperational": true},
		"Connections": [
			{"ConnectionType": {"Title": "CCS"}, "PowerKW": 150},
			{"ConnectionType": {"Title": "CHAdeMO"}, "PowerKW": 50},
			{"ConnectionType": {"Title": "CCS"}, "PowerKW": 150}
		]
	},
	{
		"ID": 102,
		"AddressInfo": {"Title": "No Coordinates"}
	},
	{
		"ID": 103,
		"AddressInfo": {"Title": "Broken Charger", "Latitude": 39.92, "Longitude": 116.41},
		"StatusType": {"IsOperational": false}
	},
	{
		"ID": 104,
		"AddressInfo": {"Title": "Unknown Status", "Latitude": 39.93, "Longitude": 116.42}
	}
]`

func TestListNearby(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(poiBody))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-key", zap.NewNop())
	stations, err := c.ListNearby(context.Background(), 39.91, 116.40, 25, 100)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "key=test-key")
	assert.Contains(t, gotQuery, "distance=25.0")

	// 无坐标的 POI 被跳过
	require.Len(t, stations, 3)

	first := stations[0]
	assert.Equal(t, "City Garage", first.Name)
	assert.Equal(t, "1 Main St, Springfield", first.Address)
	assert.Equal(t, "ChargeCo", first.Operator)
	assert.Equal(t, SourceName, first.Source)
	assert.Equal(t, "101", first.ExternalID)
	assert.True(t, first.IsOperational)
	// 接口类型去重，功率取最大
	assert.Equal(t, []string{"CCS", "CHAdeMO"}, []string(first.ConnectorTypes))
	assert.Equal(t, 150.0, first.PowerKW)

	assert.False(t, stations[1].IsOperational)

	// 无状态信息的按可用处理
	assert.True(t, stations[2].IsOperational)
}

func TestListNearbyServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", zap.NewNop())
	_, err := c.ListNearby(context.Background(), 0, 0, 10, 10)
	assert.ErrorContains(t, err, "403")
}
