package handlers

import (
	"net/http"
	"resonance/services"
	"resonance/types"

	"github.com/gin-gonic/gin"
)

// PlayerHandler exposes the playback controls
type PlayerHandler struct {
	player  *services.Player
	library services.LibraryService
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(player *services.Player, library services.LibraryService) *PlayerHandler {
	return &PlayerHandler{
		player:  player,
		library: library,
	}
}

// PlayRequest selects what to play. The queue becomes the library view for
// Query and Sort; TrackID wins over Index.
type PlayRequest struct {
	TrackID string        `json:"trackId"`
	Index   *int          `json:"index"`
	Query   string        `json:"query"`
	Sort    types.SortKey `json:"sort"`
}

// SeekRequest moves the playhead to Seconds or to a fraction (0..1) of the track
type SeekRequest struct {
	Seconds *float64 `json:"seconds"`
	Percent *float64 `json:"percent"`
}

// VolumeRequest sets an absolute volume or nudges it by Delta
type VolumeRequest struct {
	Volume *float64 `json:"volume"`
	Delta  *float64 `json:"delta"`
}

// Status returns the playback state
func (h *PlayerHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.player.Status())
}

// Play loads a track from the current view, or resumes when the body is empty
func (h *PlayerHandler) Play(c *gin.Context) {
	var req PlayRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid play request",
				"details": err.Error(),
			})
			return
		}
	}

	var err error
	switch {
	case req.TrackID != "":
		h.player.SetQueue(h.library.View(req.Query, req.Sort))
		err = h.player.PlayTrack(req.TrackID)
	case req.Index != nil:
		h.player.SetQueue(h.library.View(req.Query, req.Sort))
		err = h.player.PlayIndex(*req.Index)
	default:
		err = h.player.Play()
	}
	if err != nil {
		respondError(c, "failed to play", err)
		return
	}

	c.JSON(http.StatusOK, h.player.Status())
}

// Toggle switches between playing and paused
func (h *PlayerHandler) Toggle(c *gin.Context) {
	h.respond(c, h.player.TogglePlayPause())
}

// Pause pauses playback
func (h *PlayerHandler) Pause(c *gin.Context) {
	h.respond(c, h.player.Pause())
}

// Next skips to the following track
func (h *PlayerHandler) Next(c *gin.Context) {
	h.respond(c, h.player.Next())
}

// Previous goes back to the preceding track
func (h *PlayerHandler) Previous(c *gin.Context) {
	h.respond(c, h.player.Previous())
}

// Shuffle toggles shuffle mode and remembers it
func (h *PlayerHandler) Shuffle(c *gin.Context) {
	shuffle := h.player.ToggleShuffle()
	_, err := h.library.UpdateSettings(func(s *types.Settings) { s.Shuffle = shuffle })
	h.respond(c, err)
}

// Repeat cycles the repeat mode and remembers it
func (h *PlayerHandler) Repeat(c *gin.Context) {
	repeat := h.player.ToggleRepeat()
	_, err := h.library.UpdateSettings(func(s *types.Settings) { s.Repeat = repeat })
	h.respond(c, err)
}

// Mute toggles mute
func (h *PlayerHandler) Mute(c *gin.Context) {
	_, err := h.player.ToggleMute()
	h.respond(c, err)
}

// Seek moves the playhead
func (h *PlayerHandler) Seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Seconds == nil && req.Percent == nil) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "seconds or percent is required",
		})
		return
	}

	if req.Seconds != nil {
		h.respond(c, h.player.Seek(*req.Seconds))
		return
	}
	h.respond(c, h.player.SeekPercent(*req.Percent))
}

// Volume changes the volume and remembers it
func (h *PlayerHandler) Volume(c *gin.Context) {
	var req VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Volume == nil && req.Delta == nil) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "volume or delta is required",
		})
		return
	}

	var err error
	if req.Volume != nil {
		err = h.player.SetVolume(*req.Volume)
	} else {
		err = h.player.AdjustVolume(*req.Delta)
	}
	if err != nil {
		respondError(c, "failed to change volume", err)
		return
	}

	volume := h.player.Status().Volume
	_, err = h.library.UpdateSettings(func(s *types.Settings) { s.Volume = volume })
	h.respond(c, err)
}

// respond writes the player status, or the error that prevented the action
func (h *PlayerHandler) respond(c *gin.Context, err error) {
	if err != nil {
		respondError(c, "player action failed", err)
		return
	}
	c.JSON(http.StatusOK, h.player.Status())
}
