package handlers

import (
	"errors"
	"log"
	"net/http"
	"resonance/services"
	"resonance/types"

	"github.com/gin-gonic/gin"
)

// LibraryHandler handles track listing and library maintenance endpoints
type LibraryHandler struct {
	library services.LibraryService
	player  *services.Player
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(library services.LibraryService, player *services.Player) *LibraryHandler {
	return &LibraryHandler{
		library: library,
		player:  player,
	}
}

// ListTracks returns the current playlist: the library filtered by q and sorted by sort
func (h *LibraryHandler) ListTracks(c *gin.Context) {
	query := c.Query("q")
	sort := types.SortKey(c.Query("sort"))

	if sort != "" && !services.ValidSortKey(sort) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sort must be one of name, artist, album, year, duration, dateAdded",
		})
		return
	}

	tracks := h.library.View(query, sort)
	c.JSON(http.StatusOK, gin.H{
		"tracks": tracks,
		"count":  len(tracks),
		"query":  query,
	})
}

// GetTrack returns a single track by ID
func (h *LibraryHandler) GetTrack(c *gin.Context) {
	track, err := h.library.Track(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "track not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"track": track,
	})
}

// Stats returns the track count and total play time
func (h *LibraryHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.library.Stats())
}

// ClearLibrary removes every track from the library
func (h *LibraryHandler) ClearLibrary(c *gin.Context) {
	if h.library.Scanning() {
		c.JSON(http.StatusConflict, gin.H{
			"error": services.ErrScanInProgress.Error(),
		})
		return
	}

	if err := h.library.Replace(nil); err != nil {
		respondError(c, "failed to clear library", err)
		return
	}

	// the queue would otherwise keep pointing at removed tracks
	if err := h.player.Stop(); err != nil {
		log.Printf("Warning: failed to stop playback: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "library cleared",
	})
}

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	var persistErr *services.PersistenceError

	switch {
	case errors.Is(err, services.ErrTrackNotFound), errors.Is(err, services.ErrPlaylistNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNoTrackSelected), errors.Is(err, services.ErrQueueEmpty),
		errors.Is(err, services.ErrIndexOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrScanInProgress):
		status = http.StatusConflict
	case errors.As(err, &persistErr):
		log.Printf("Warning: %v", err)
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
