package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/models"
	"github.com/voltroute/voltroute/internal/repository"
)

// UpsertVehicleRequest 创建或更新车辆请求
type UpsertVehicleRequest struct {
	Name         string  `json:"name" binding:"required"`
	Model        string  `json:"model"`
	PlateNumber  string  `json:"plate_number"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	BatteryLevel float64 `json:"battery_level" binding:"min=0,max=100"`
}

// ListVehicles 获取车辆列表
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list vehicles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

// GetVehicle 获取车辆详情
func (h *Handler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		h.logger.Error("Failed to get vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get vehicle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}

// UpsertVehicle 创建或更新车辆
func (h *Handler) UpsertVehicle(c *gin.Context) {
	var req UpsertVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle := &models.Vehicle{
		ID:           c.Param("id"),
		Name:         req.Name,
		Model:        req.Model,
		PlateNumber:  req.PlateNumber,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		BatteryLevel: req.BatteryLevel,
		Status:       models.VehicleStatusIdle,
	}

	if err := h.vehicleRepo.Upsert(c.Request.Context(), vehicle); err != nil {
		h.logger.Error("Failed to upsert vehicle", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save vehicle"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": vehicle})
}
