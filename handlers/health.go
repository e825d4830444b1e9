package handlers

import (
	"net/http"
	"resonance/config"
	"resonance/services"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint; cmd overrides it from build info
var Version = "dev"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	library services.LibraryService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(library services.LibraryService) *HealthHandler {
	return &HealthHandler{
		library: library,
	}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "resonance",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus returns the status of the API
func (h *HealthHandler) APIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":        "Resonance API is running",
		"data_dir":       config.GetDataDir(),
		"store":          config.GetStoreBackend(),
		"tracks":         len(h.library.Tracks()),
		"folders":        h.library.Settings().Folders,
		"scanning":       h.library.Scanning(),
		"audio_playback": services.AudioAvailable,
	})
}
