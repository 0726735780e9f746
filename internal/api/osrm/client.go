package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
)

// DefaultBaseURL 公共 OSRM 演示服务器
const DefaultBaseURL = "https://router.project-osrm.org"

// Client OSRM 路线规划客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// routeResponse OSRM /route 响应
type routeResponse struct {
	Code   string `json:"code"` // "Ok" 成功
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Distance float64 `json:"distance"` // 米
		Duration float64 `json:"duration"` // 秒
		Legs     []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Name     string  `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// RouteResult 一条规划好的路线
type RouteResult struct {
	Coordinates []models.Coordinate
	Steps       []models.RouteStep
	DistanceKm  float64
	DurationSec float64
}

// NewClient 创建 OSRM 客户端
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Route 规划一条途经给定坐标序列的驾车路线
// 坐标顺序: 起点, 途经点..., 终点；至少两个点
func (c *Client) Route(ctx context.Context, waypoints []models.Coordinate) (*RouteResult, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route requires at least 2 waypoints, got %d", len(waypoints))
	}

	// OSRM 要求经度在前，纬度在后
	parts := make([]string, len(waypoints))
	for i, wp := range waypoints {
		parts[i] = fmt.Sprintf("%.6f,%.6f", wp.Lon, wp.Lat)
	}
	apiURL := fmt.Sprintf("%s/route/v1/driving/%s?overview=full&geometries=geojson&steps=true",
		c.baseURL, strings.Join(parts, ";"))

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
		return nil, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}

	var result routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Code != "Ok" || len(result.Routes) == 0 {
		c.logger.Warn("OSRM returned no route",
			zap.String("code", result.Code),
			zap.Int("waypoints", len(waypoints)))
		return nil, fmt.Errorf("osrm error: %s", result.Code)
	}

	route := result.Routes[0]
	coords := make([]models.Coordinate, 0, len(route.Geometry.Coordinates))
	for _, pair := range route.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		coords = append(coords, models.Coordinate{Lon: pair[0], Lat: pair[1]})
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("osrm route has %d coordinates", len(coords))
	}

	var steps []models.RouteStep
	for _, leg := range route.Legs {
		for _, s := range leg.Steps {
			steps = append(steps, models.RouteStep{
				Instruction: stepInstruction(s.Maneuver.Type, s.Maneuver.Modifier, s.Name),
				DistanceM:   s.Distance,
				DurationSec: s.Duration,
			})
		}
	}

	return &RouteResult{
		Coordinates: coords,
		Steps:       steps,
		DistanceKm:  route.Distance / 1000,
		DurationSec: route.Duration,
	}, nil
}

// stepInstruction 从 maneuver 拼装可读指令
func stepInstruction(maneuverType, modifier, road string) string {
	var b strings.Builder
	b.WriteString(maneuverType)
	if modifier != "" {
		b.WriteString(" ")
		b.WriteString(modifier)
	}
	if road != "" {
		b.WriteString(" onto ")
		b.WriteString(road)
	}
	return b.String()
}
