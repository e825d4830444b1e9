package handlers

import (
	"log"
	"net/http"
	"resonance/services"
	"resonance/types"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	library services.LibraryService
	player  *services.Player
}

// NewSettingsHandler creates a new settings handler. Playback preferences
// are applied to player as they are saved.
func NewSettingsHandler(library services.LibraryService, player *services.Player) *SettingsHandler {
	return &SettingsHandler{
		library: library,
		player:  player,
	}
}

// SettingsUpdate carries the preferences a client may change; absent fields are kept
type SettingsUpdate struct {
	Volume  *float64          `json:"volume"`
	Shuffle *bool             `json:"shuffle"`
	Repeat  *types.RepeatMode `json:"repeat"`
	Sort    *types.SortKey    `json:"sort"`
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.library.Settings())
}

// UpdateSettings updates the user settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var update SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid settings format",
			"details": err.Error(),
		})
		return
	}

	if update.Volume != nil && (*update.Volume < 0 || *update.Volume > 1) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "volume must be between 0 and 1",
		})
		return
	}
	if update.Repeat != nil && !update.Repeat.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "repeat must be one of none, all, one",
		})
		return
	}
	if update.Sort != nil && !services.ValidSortKey(*update.Sort) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sort must be one of name, artist, album, year, duration, dateAdded",
		})
		return
	}

	settings, err := h.library.UpdateSettings(func(s *types.Settings) {
		if update.Volume != nil {
			s.Volume = *update.Volume
		}
		if update.Shuffle != nil {
			s.Shuffle = *update.Shuffle
		}
		if update.Repeat != nil {
			s.Repeat = *update.Repeat
		}
		if update.Sort != nil {
			s.Sort = *update.Sort
		}
	})
	if err != nil {
		respondError(c, "Failed to save settings", err)
		return
	}

	if err := h.applyToPlayer(update); err != nil {
		log.Printf("Warning: failed to apply settings to player: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Settings updated successfully",
		"settings": settings,
	})
}

// applyToPlayer keeps the live player in line with the saved preferences
func (h *SettingsHandler) applyToPlayer(update SettingsUpdate) error {
	if update.Shuffle != nil {
		h.player.SetShuffle(*update.Shuffle)
	}
	if update.Repeat != nil {
		if err := h.player.SetRepeat(*update.Repeat); err != nil {
			return err
		}
	}
	if update.Volume != nil {
		return h.player.SetVolume(*update.Volume)
	}
	return nil
}
