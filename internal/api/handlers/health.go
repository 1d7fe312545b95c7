package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	provider string
	model    string
	sessions func() int
}

func NewHealthHandler(provider, model string, sessions func() int) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		model:    model,
		sessions: sessions,
	}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	activeSessions := 0
	if h.sessions != nil {
		activeSessions = h.sessions()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"backend": gin.H{
			"provider": h.provider,
			"model":    h.model,
		},
		"sessions": activeSessions,
	})
}
