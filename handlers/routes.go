package handlers

import (
	"github.com/gin-gonic/gin"
)

// Routes bundles every handler served by the API
type Routes struct {
	Health    *HealthHandler
	Library   *LibraryHandler
	Files     *FileHandler
	Scans     *ScanHandler
	Player    *PlayerHandler
	Playlists *PlaylistHandler
	Settings  *SettingsHandler
}

// Register configures all the HTTP routes
func (rt Routes) Register(r *gin.Engine) {
	// Health check endpoint
	r.GET("/health", rt.Health.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", rt.Health.APIStatus)

		// Library
		apiGroup.GET("/tracks", rt.Library.ListTracks)
		apiGroup.GET("/tracks/:id", rt.Library.GetTrack)
		apiGroup.GET("/tracks/:id/stream", rt.Files.StreamTrack)
		apiGroup.GET("/tracks/:id/art", rt.Files.GetArtwork)
		apiGroup.GET("/stats", rt.Library.Stats)
		apiGroup.DELETE("/library", rt.Library.ClearLibrary)

		// Folder scans
		scansGroup := apiGroup.Group("/scans")
		{
			scansGroup.POST("", rt.Scans.QueueScan)
			scansGroup.GET("", rt.Scans.GetAllJobs)
			scansGroup.GET("/:jobId", rt.Scans.GetJob)
			scansGroup.DELETE("/:jobId", rt.Scans.CancelJob)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/scans/:jobId", rt.Scans.HandleWebSocketConnection)
			wsGroup.GET("/scans", rt.Scans.HandleWebSocketAllConnection)
		}

		// Playback controls
		playerGroup := apiGroup.Group("/player")
		{
			playerGroup.GET("", rt.Player.Status)
			playerGroup.POST("/play", rt.Player.Play)
			playerGroup.POST("/toggle", rt.Player.Toggle)
			playerGroup.POST("/pause", rt.Player.Pause)
			playerGroup.POST("/next", rt.Player.Next)
			playerGroup.POST("/previous", rt.Player.Previous)
			playerGroup.POST("/shuffle", rt.Player.Shuffle)
			playerGroup.POST("/repeat", rt.Player.Repeat)
			playerGroup.POST("/mute", rt.Player.Mute)
			playerGroup.POST("/seek", rt.Player.Seek)
			playerGroup.POST("/volume", rt.Player.Volume)
		}

		// Playlists
		playlistsGroup := apiGroup.Group("/playlists")
		{
			playlistsGroup.GET("", rt.Playlists.ListPlaylists)
			playlistsGroup.POST("", rt.Playlists.CreatePlaylist)
			playlistsGroup.GET("/:id", rt.Playlists.GetPlaylist)
			playlistsGroup.DELETE("/:id", rt.Playlists.DeletePlaylist)
			playlistsGroup.POST("/:id/tracks", rt.Playlists.AddTrack)
		}

		// Settings endpoints
		apiGroup.GET("/settings", rt.Settings.GetSettings)
		apiGroup.PUT("/settings", rt.Settings.UpdateSettings)
	}
}
