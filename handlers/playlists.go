package handlers

import (
	"net/http"
	"resonance/services"

	"github.com/gin-gonic/gin"
)

// PlaylistHandler handles user playlist endpoints
type PlaylistHandler struct {
	library services.LibraryService
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(library services.LibraryService) *PlaylistHandler {
	return &PlaylistHandler{
		library: library,
	}
}

// ListPlaylists returns every playlist
func (h *PlaylistHandler) ListPlaylists(c *gin.Context) {
	playlists := h.library.Playlists()
	c.JSON(http.StatusOK, gin.H{
		"playlists": playlists,
		"total":     len(playlists),
	})
}

// CreatePlaylist creates an empty playlist
func (h *PlaylistHandler) CreatePlaylist(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "name is required",
			"details": err.Error(),
		})
		return
	}

	playlist, err := h.library.CreatePlaylist(req.Name)
	if err != nil {
		respondError(c, "failed to create playlist", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"playlist": playlist,
	})
}

// GetPlaylist returns a playlist together with its resolved tracks
func (h *PlaylistHandler) GetPlaylist(c *gin.Context) {
	id := c.Param("id")

	playlist, err := h.library.Playlist(id)
	if err != nil {
		respondError(c, "playlist not found", err)
		return
	}
	tracks, err := h.library.PlaylistTracks(id)
	if err != nil {
		respondError(c, "playlist not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playlist": playlist,
		"tracks":   tracks,
	})
}

// AddTrack appends a library track to a playlist
func (h *PlaylistHandler) AddTrack(c *gin.Context) {
	var req struct {
		TrackID string `json:"trackId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "trackId is required",
			"details": err.Error(),
		})
		return
	}

	playlist, err := h.library.AddToPlaylist(c.Param("id"), req.TrackID)
	if err != nil {
		respondError(c, "failed to add track", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playlist": playlist,
	})
}

// DeletePlaylist removes a playlist
func (h *PlaylistHandler) DeletePlaylist(c *gin.Context) {
	if err := h.library.DeletePlaylist(c.Param("id")); err != nil {
		respondError(c, "failed to delete playlist", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "playlist deleted",
	})
}
