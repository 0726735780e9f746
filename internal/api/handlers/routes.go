package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/locator"
	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/repository"
	"github.com/voltroute/voltroute/internal/service"
)

// CreateRouteRequest 创建路线请求
type CreateRouteRequest struct {
	VehicleID string              `json:"vehicle_id" binding:"required"`
	Name      string              `json:"name"`
	Start     *models.Coordinate  `json:"start" binding:"required"`
	End       *models.Coordinate  `json:"end" binding:"required"`
	Waypoints []models.Coordinate `json:"waypoints"`
}

// CreateRoute 创建路线：规划、保存并附带沿线充电站
func (h *Handler) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	waypoints := make([]models.Coordinate, 0, len(req.Waypoints)+2)
	waypoints = append(waypoints, *req.Start)
	waypoints = append(waypoints, req.Waypoints...)
	waypoints = append(waypoints, *req.End)

	route, err := h.routeService.Create(c.Request.Context(), req.VehicleID, req.Name, waypoints)
	if err != nil {
		if errors.Is(err, service.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		h.logger.Error("Failed to create route", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to plan route"})
		return
	}

	// 沿线充电站查询失败不影响路线创建
	stations, err := h.routeService.StationsAlongRoute(c.Request.Context(), route.ID,
		locator.DefaultMaxDistanceKm, locator.DefaultMaxStations)
	if err != nil {
		h.logger.Warn("Failed to find stations along new route",
			zap.String("route_id", route.ID),
			zap.Error(err))
		stations = nil
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"route":    route,
		"stations": stations,
	}})
}

// GetRoute 获取路线详情
func (h *Handler) GetRoute(c *gin.Context) {
	route, err := h.routeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		h.logger.Error("Failed to get route", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": route})
}

// ListVehicleRoutes 获取车辆的路线列表
func (h *Handler) ListVehicleRoutes(c *gin.Context) {
	routes, err := h.routeService.ListByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to list routes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": routes})
}

// GetRouteStations 获取路线沿途的充电站
func (h *Handler) GetRouteStations(c *gin.Context) {
	maxDistanceKm := locator.DefaultMaxDistanceKm
	if raw := c.Query("max_distance_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_distance_km"})
			return
		}
		maxDistanceKm = v
	}

	maxStations := locator.DefaultMaxStations
	if raw := c.Query("max_stations"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_stations"})
			return
		}
		maxStations = v
	}

	stations, err := h.routeService.StationsAlongRoute(c.Request.Context(), c.Param("id"), maxDistanceKm, maxStations)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		h.logger.Error("Failed to find stations along route", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find stations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stations})
}
