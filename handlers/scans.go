package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"resonance/services"
	"resonance/websocket"

	"github.com/gin-gonic/gin"
)

// ScanHandler handles folder scan endpoints
type ScanHandler struct {
	scanQueue services.ScanQueue
	hub       websocket.Hub
}

// NewScanHandler creates a new scan handler
func NewScanHandler(sq services.ScanQueue, hub websocket.Hub) *ScanHandler {
	return &ScanHandler{
		scanQueue: sq,
		hub:       hub,
	}
}

// ScanRequest is the body of POST /api/scans
type ScanRequest struct {
	Path string `json:"path" binding:"required"`
}

// QueueScan queues a scan of a music folder
func (h *ScanHandler) QueueScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "path is required",
			"details": err.Error(),
		})
		return
	}

	root, err := filepath.Abs(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid path",
			"details": err.Error(),
		})
		return
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is not a readable directory",
			"path":  root,
		})
		return
	}

	job := h.scanQueue.AddJob(root)
	c.JSON(http.StatusAccepted, gin.H{
		"message": "Scan queued successfully",
		"job":     job,
	})
}

// GetAllJobs returns all scan jobs
func (h *ScanHandler) GetAllJobs(c *gin.Context) {
	jobs := h.scanQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific scan job by ID
func (h *ScanHandler) GetJob(c *gin.Context) {
	job, exists := h.scanQueue.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a queued scan job
func (h *ScanHandler) CancelJob(c *gin.Context) {
	if !h.scanQueue.CancelJob(c.Param("jobId")) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocketConnection handles WebSocket connections for specific job progress
func (h *ScanHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if _, exists := h.scanQueue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	h.serveWebSocket(c, jobID)
}

// HandleWebSocketAllConnection handles WebSocket connections for all job progress
func (h *ScanHandler) HandleWebSocketAllConnection(c *gin.Context) {
	h.serveWebSocket(c, websocket.AllJobs)
}

func (h *ScanHandler) serveWebSocket(c *gin.Context, topic string) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, topic)
	h.hub.RegisterClient(client)

	// Start client pumps
	client.StartPumps()
}
