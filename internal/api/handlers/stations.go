package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/repository"
)

// SyncStationsRequest 充电站同步请求
type SyncStationsRequest struct {
	Latitude   float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude  float64 `json:"longitude" binding:"min=-180,max=180"`
	RadiusKm   float64 `json:"radius_km"`
	MaxResults int     `json:"max_results"`
}

// ListStations 获取充电站列表
func (h *Handler) ListStations(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = v
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
			return
		}
		offset = v
	}

	stations, err := h.stationRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list stations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list stations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stations})
}

// GetStation 获取充电站详情
func (h *Handler) GetStation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid station ID"})
		return
	}

	station, err := h.stationRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Station not found"})
			return
		}
		h.logger.Error("Failed to get station", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get station"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": station})
}

// SyncStations 从外部目录拉取并写入充电站
func (h *Handler) SyncStations(c *gin.Context) {
	var req SyncStationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RadiusKm <= 0 {
		req.RadiusKm = 25
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 200
	}

	synced, err := h.syncService.SyncNearby(c.Request.Context(), req.Latitude, req.Longitude, req.RadiusKm, req.MaxResults)
	if err != nil {
		h.logger.Error("Station sync failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch stations from catalog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"synced": synced}})
}
