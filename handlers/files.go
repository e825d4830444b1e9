package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"resonance/services"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// FileHandler streams track audio and artwork
type FileHandler struct {
	library services.LibraryService
}

// NewFileHandler creates a new file handler
func NewFileHandler(library services.LibraryService) *FileHandler {
	return &FileHandler{
		library: library,
	}
}

// contentTypes maps the allow-listed extensions onto MIME types
var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".wma":  "audio/x-ms-wma",
	".aac":  "audio/aac",
}

// GetContentType returns the MIME type for an audio file
func GetContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// StreamTrack streams a track's file with support for range requests
func (h *FileHandler) StreamTrack(c *gin.Context) {
	track, err := h.library.Track(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "track not found",
		})
		return
	}

	// Only library tracks are served, and only allow-listed audio
	if !services.IsAudioFile(track.Path) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "file extension not allowed",
		})
		return
	}

	// Check if file exists and is readable
	fileInfo, err := os.Stat(track.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "file not found",
				"path":  track.Path,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "file access error",
			"details": err.Error(),
		})
		return
	}

	if fileInfo.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "path is a directory, not a file",
		})
		return
	}

	file, err := os.Open(track.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to open file",
			"details": err.Error(),
		})
		return
	}
	defer file.Close()

	// Set appropriate headers for audio streaming
	c.Header("Content-Type", GetContentType(track.Path))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")

	// Handle range requests for seeking
	if rangeHeader := c.GetHeader("Range"); rangeHeader != "" {
		h.handleRangeRequest(c, file, fileInfo.Size(), rangeHeader)
		return
	}

	c.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		log.Printf("Error streaming file %s: %v", track.Path, err)
	}
}

// parseRange parses a single "bytes=start-end" range against size
func parseRange(rangeHeader string, size int64) (int64, int64, bool) {
	rangeSpec, ok := strings.CutPrefix(rangeHeader, "bytes=")
	if !ok {
		return 0, 0, false
	}

	ranges := strings.Split(rangeSpec, "-")
	if len(ranges) != 2 {
		return 0, 0, false
	}

	var start, end int64
	var err error

	switch {
	case ranges[0] == "" && ranges[1] == "":
		return 0, 0, false
	case ranges[0] == "":
		// suffix range: the last n bytes
		n, err := strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, size > 0
	}

	start, err = strconv.ParseInt(ranges[0], 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false
	}

	if ranges[1] != "" {
		end, err = strconv.ParseInt(ranges[1], 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
	} else {
		end = size - 1
	}

	if start >= size {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	return start, end, true
}

// handleRangeRequest handles HTTP range requests for efficient seeking
func (h *FileHandler) handleRangeRequest(c *gin.Context, file *os.File, fileSize int64, rangeHeader string) {
	start, end, ok := parseRange(rangeHeader, fileSize)
	if !ok {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to seek file",
		})
		return
	}

	contentLength := end - start + 1
	c.Header("Content-Length", strconv.FormatInt(contentLength, 10))
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	c.Status(http.StatusPartialContent)

	// Copy only the requested range
	if _, err := io.CopyN(c.Writer, file, contentLength); err != nil {
		log.Printf("Error streaming range %d-%d: %v", start, end, err)
	}
}

// GetArtwork serves the embedded album art of a track
func (h *FileHandler) GetArtwork(c *gin.Context) {
	track, err := h.library.Track(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "track not found",
		})
		return
	}
	if track.AlbumArt == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "track has no album art",
		})
		return
	}

	pic, err := services.DecodeDataURI(*track.AlbumArt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "invalid album art",
			"details": err.Error(),
		})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, pic.MIMEType, pic.Data)
}
