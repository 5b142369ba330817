package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/insightboard/insightboard/pkg/logger"
	"github.com/insightboard/insightboard/pkg/middleware"
)

const processingMessage = "Your metrics are being processed. Refresh in a few moments."

type MetricsReader interface {
	GetForUser(ctx context.Context, userID int64) (map[string]models.MetricValue, error)
}

type MetricsHandler struct {
	reader MetricsReader
}

func NewMetricsHandler(r MetricsReader) *MetricsHandler {
	return &MetricsHandler{reader: r}
}

// Register mounts the protected routes behind gate. Extra middleware runs
// after the gate, so it can see the caller's identity.
func (h *MetricsHandler) Register(rg *gin.RouterGroup, gate gin.HandlerFunc, after ...gin.HandlerFunc) {
	protected := rg.Group("", gate)
	protected.Use(after...)
	protected.GET("/metrics", h.Get)
	protected.GET("/me", h.Me)
}

// Get returns metric key -> value for the caller.
func (h *MetricsHandler) Get(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
		return
	}
	data, err := h.reader.GetForUser(c.Request.Context(), id.UserID)
	if err != nil {
		logger.Errorf("fetching metrics for user %d: %v", id.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error while fetching metrics."})
		return
	}
	if len(data) == 0 {
		logger.Warnf("no cached metrics for user %d yet", id.UserID)
		c.JSON(http.StatusOK, gin.H{"message": processingMessage})
		return
	}
	logger.Debugf("serving %d cached metrics for user %d", len(data), id.UserID)
	c.JSON(http.StatusOK, data)
}

// Me echoes the identity the gate attached to the request context.
func (h *MetricsHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
		return
	}
	c.JSON(http.StatusOK, id)
}
