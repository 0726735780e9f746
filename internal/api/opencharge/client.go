package opencharge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
)

// DefaultBaseURL Open Charge Map API 地址
const DefaultBaseURL = "https://api.openchargemap.io/v3"

// SourceName 写入 charging_stations.source 的数据来源标识
const SourceName = "openchargemap"

// Client Open Charge Map 充电站目录客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// poi Open Charge Map POI 响应条目
type poi struct {
	ID          int64 `json:"ID"`
	AddressInfo *struct {
		Title        string   `json:"Title"`
		AddressLine1 string   `json:"AddressLine1"`
		Town         string   `json:"Town"`
		Latitude     *float64 `json:"Latitude"`
		Longitude    *float64 `json:"Longitude"`
	} `json:"AddressInfo"`
	OperatorInfo *struct {
		Title string `json:"Title"`
	} `json:"OperatorInfo"`
	StatusType *struct {
		IsOperational *bool `json:"IsOperational"`
	} `json:"StatusType"`
	Connections []struct {
		ConnectionType *struct {
			Title string `json:"Title"`
		} `json:"ConnectionType"`
		PowerKW *float64 `json:"PowerKW"`
	} `json:"Connections"`
}

// NewClient 创建 Open Charge Map 客户端
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// ListNearby 拉取给定点周边的充电站
// 没有坐标的记录被跳过；没有状态的记录按可用处理
func (c *Client) ListNearby(ctx context.Context, lat, lon, radiusKm float64, maxResults int) ([]models.ChargingStation, error) {
	params := url.Values{}
	params.Set("output", "json")
	params.Set("latitude", fmt.Sprintf("%.6f", lat))
	params.Set("longitude", fmt.Sprintf("%.6f", lon))
	params.Set("distance", fmt.Sprintf("%.1f", radiusKm))
	params.Set("distanceunit", "KM")
	params.Set("maxresults", fmt.Sprintf("%d", maxResults))
	params.Set("compact", "true")
	params.Set("verbose", "false")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	apiURL := fmt.Sprintf("%s/poi?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openchargemap returned status %d", resp.StatusCode)
	}

	var pois []poi
	if err := json.NewDecoder(resp.Body).Decode(&pois); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	stations := make([]models.ChargingStation, 0, len(pois))
	skipped := 0
	for _, p := range pois {
		station, ok := c.toStation(p)
		if !ok {
			skipped++
			continue
		}
		stations = append(stations, station)
	}

	if skipped > 0 {
		c.logger.Debug("Skipped POIs without coordinates", zap.Int("skipped", skipped))
	}
	return stations, nil
}

// toStation 将 POI 映射为充电站模型
func (c *Client) toStation(p poi) (models.ChargingStation, bool) {
	if p.AddressInfo == nil || p.AddressInfo.Latitude == nil || p.AddressInfo.Longitude == nil {
		return models.ChargingStation{}, false
	}

	station := models.ChargingStation{
		Name:          p.AddressInfo.Title,
		Latitude:      *p.AddressInfo.Latitude,
		Longitude:     *p.AddressInfo.Longitude,
		IsOperational: true,
		Source:        SourceName,
		ExternalID:    fmt.Sprintf("%d", p.ID),
	}

	var addrParts []string
	if p.AddressInfo.AddressLine1 != "" {
		addrParts = append(addrParts, p.AddressInfo.AddressLine1)
	}
	if p.AddressInfo.Town != "" {
		addrParts = append(addrParts, p.AddressInfo.Town)
	}
	station.Address = strings.Join(addrParts, ", ")

	if p.OperatorInfo != nil {
		station.Operator = p.OperatorInfo.Title
	}
	if p.StatusType != nil && p.StatusType.IsOperational != nil {
		station.IsOperational = *p.StatusType.IsOperational
	}

	// 取所有接口类型，功率取最大值
	seen := make(map[string]bool)
	for _, conn := range p.Connections {
		if conn.ConnectionType != nil && conn.ConnectionType.Title != "" && !seen[conn.ConnectionType.Title] {
			seen[conn.ConnectionType.Title] = true
			station.ConnectorTypes = append(station.ConnectorTypes, conn.ConnectionType.Title)
		}
		if conn.PowerKW != nil && *conn.PowerKW > station.PowerKW {
			station.PowerKW = *conn.PowerKW
		}
	}

	return station, true
}
