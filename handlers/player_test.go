package handlers

import (
	"net/http"
	"resonance/services"
	"resonance/types"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRequiresSelection(t *testing.T) {
	helper := NewTestHelper(t)

	var status services.PlayerStatus
	resp := helper.GetJSON(t, "/api/player", &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, status.Current)
	assert.Equal(t, types.DefaultVolume, status.Volume)

	var errResp map[string]string
	resp = helper.PostJSON(t, "/api/player/toggle", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "no song selected", errResp["details"])

	resp = helper.PostJSON(t, "/api/player/next", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlayerPlaysFromView(t *testing.T) {
	helper := NewTestHelper(t)
	helper.WriteTrack(t, "a.mp3", "Alpha", "X", "Y")
	beta := helper.WriteTrack(t, "b.mp3", "Beta", "X", "Y")
	helper.WriteTrack(t, "c.mp3", "Gamma", "X", "Y")
	helper.ScanMusicDir(t)

	var status services.PlayerStatus
	resp := helper.PostJSON(t, "/api/player/play", gin.H{"trackId": services.TrackID(beta)}, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, status.Current)
	assert.Equal(t, "Beta", status.Current.Name)
	assert.Equal(t, 1, status.Index)
	assert.Equal(t, 3, status.QueueLength)
	assert.True(t, status.Playing)

	helper.PostJSON(t, "/api/player/next", nil, &status)
	assert.Equal(t, "Gamma", status.Current.Name)

	helper.PostJSON(t, "/api/player/next", nil, &status)
	assert.Equal(t, "Alpha", status.Current.Name, "next wraps to the top")

	helper.PostJSON(t, "/api/player/previous", nil, &status)
	assert.Equal(t, "Gamma", status.Current.Name)

	helper.PostJSON(t, "/api/player/toggle", nil, &status)
	assert.False(t, status.Playing)

	helper.PostJSON(t, "/api/player/play", nil, &status)
	assert.True(t, status.Playing)

	helper.PostJSON(t, "/api/player/pause", nil, &status)
	assert.False(t, status.Playing)

	// a filtered view becomes the queue
	resp = helper.PostJSON(t, "/api/player/play", gin.H{"index": 0, "query": "gam"}, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, status.QueueLength)
	assert.Equal(t, "Gamma", status.Current.Name)

	resp = helper.PostJSON(t, "/api/player/play", gin.H{"trackId": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlayerModesArePersisted(t *testing.T) {
	helper := NewTestHelper(t)

	var status services.PlayerStatus
	helper.PostJSON(t, "/api/player/shuffle", nil, &status)
	assert.True(t, status.Shuffle)

	helper.PostJSON(t, "/api/player/repeat", nil, &status)
	assert.Equal(t, types.RepeatAll, status.Repeat)
	helper.PostJSON(t, "/api/player/repeat", nil, &status)
	assert.Equal(t, types.RepeatOne, status.Repeat)

	resp := helper.PostJSON(t, "/api/player/volume", gin.H{"volume": 0.5}, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.5, status.Volume)

	helper.PostJSON(t, "/api/player/volume", gin.H{"delta": -0.1}, &status)
	assert.Equal(t, 0.4, status.Volume)

	helper.PostJSON(t, "/api/player/mute", nil, &status)
	assert.True(t, status.Muted)

	saved, err := helper.Store.LoadSettings()
	require.NoError(t, err)
	assert.True(t, saved.Shuffle)
	assert.Equal(t, types.RepeatOne, saved.Repeat)
	assert.Equal(t, 0.4, saved.Volume)

	resp = helper.PostJSON(t, "/api/player/volume", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlayerSeek(t *testing.T) {
	helper := NewTestHelper(t)
	require.NoError(t, helper.Library.Replace([]types.Track{
		{ID: "long", Path: "/m/long.mp3", Name: "Long", Duration: 240},
	}))

	resp := helper.PostJSON(t, "/api/player/seek", gin.H{"seconds": 10}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "nothing selected")

	helper.PostJSON(t, "/api/player/play", gin.H{"trackId": "long"}, nil)

	var status services.PlayerStatus
	resp = helper.PostJSON(t, "/api/player/seek", gin.H{"seconds": 75}, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 75.0, status.Position)
	assert.Equal(t, "1:15", status.Elapsed)
	assert.Equal(t, "4:00", status.Total)

	helper.PostJSON(t, "/api/player/seek", gin.H{"percent": 0.5}, &status)
	assert.Equal(t, 120.0, status.Position)

	resp = helper.PostJSON(t, "/api/player/seek", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
