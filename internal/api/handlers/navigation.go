package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voltroute/voltroute/internal/navigation"
)

// StartNavigationRequest 启动导航请求
type StartNavigationRequest struct {
	RouteID string `json:"route_id" binding:"required"`
}

// StartNavigation 为车辆启动导航会话
func (h *Handler) StartNavigation(c *gin.Context) {
	var req StartNavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.navManager.Start(c.Request.Context(), c.Param("id"), req.RouteID)
	if err != nil {
		switch {
		case errors.Is(err, navigation.ErrSessionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle already has an active session"})
		case errors.Is(err, navigation.ErrRouteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		default:
			h.logger.Error("Failed to start navigation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start navigation"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": snap})
}

// PauseNavigation 暂停导航会话
func (h *Handler) PauseNavigation(c *gin.Context) {
	snap, err := h.navManager.Pause(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "pause")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// ResumeNavigation 恢复导航会话
func (h *Handler) ResumeNavigation(c *gin.Context) {
	snap, err := h.navManager.Resume(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "resume")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// StopNavigation 停止导航会话
func (h *Handler) StopNavigation(c *gin.Context) {
	if err := h.navManager.Stop(c.Request.Context(), c.Param("id")); err != nil {
		h.respondSessionError(c, err, "stop")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"stopped": true}})
}

// GetNavigation 获取车辆当前的导航会话
func (h *Handler) GetNavigation(c *gin.Context) {
	snap, err := h.navManager.GetActive(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "get")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// ListNavigationSessions 获取所有导航会话
func (h *Handler) ListNavigationSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.navManager.ListAll()})
}

func (h *Handler) respondSessionError(c *gin.Context, err error, op string) {
	if errors.Is(err, navigation.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active session for vehicle"})
		return
	}
	h.logger.Error("Navigation operation failed",
		zap.String("op", op),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Navigation operation failed"})
}
