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

type playlistResponse struct {
	Playlist types.Playlist `json:"playlist"`
	Tracks   []types.Track  `json:"tracks"`
}

func TestPlaylistLifecycle(t *testing.T) {
	helper := NewTestHelper(t)
	path := helper.WriteTrack(t, "a.mp3", "Alpha", "X", "Y")
	helper.ScanMusicDir(t)

	var created playlistResponse
	resp := helper.PostJSON(t, "/api/playlists", gin.H{"name": "Favourites"}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Favourites", created.Playlist.Name)
	id := created.Playlist.ID

	var updated playlistResponse
	resp = helper.PostJSON(t, "/api/playlists/"+id+"/tracks", gin.H{"trackId": services.TrackID(path)}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{services.TrackID(path)}, updated.Playlist.TrackIDs)

	var fetched playlistResponse
	helper.GetJSON(t, "/api/playlists/"+id, &fetched)
	require.Len(t, fetched.Tracks, 1)
	assert.Equal(t, "Alpha", fetched.Tracks[0].Name)

	var list struct {
		Playlists []types.Playlist `json:"playlists"`
		Total     int              `json:"total"`
	}
	helper.GetJSON(t, "/api/playlists", &list)
	assert.Equal(t, 1, list.Total)

	resp = helper.DoJSON(t, http.MethodDelete, "/api/playlists/"+id, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = helper.GetJSON(t, "/api/playlists/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, helper.Library.Tracks(), 1)
}

func TestPlaylistValidation(t *testing.T) {
	helper := NewTestHelper(t)

	resp := helper.PostJSON(t, "/api/playlists", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var created playlistResponse
	helper.PostJSON(t, "/api/playlists", gin.H{"name": "Empty"}, &created)

	resp = helper.PostJSON(t, "/api/playlists/"+created.Playlist.ID+"/tracks", gin.H{"trackId": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = helper.PostJSON(t, "/api/playlists/missing/tracks", gin.H{"trackId": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = helper.DoJSON(t, http.MethodDelete, "/api/playlists/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
