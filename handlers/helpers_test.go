package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"resonance/services"
	"resonance/storage"
	"resonance/types"
	"resonance/websocket"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testMedia is a MediaElement that plays nothing
type testMedia struct{}

func (testMedia) Load(string) error       { return nil }
func (testMedia) Play() error             { return nil }
func (testMedia) Pause() error            { return nil }
func (testMedia) Seek(float64) error      { return nil }
func (testMedia) SetVolume(float64) error { return nil }
func (testMedia) SetMuted(bool) error     { return nil }

// TestHelper provides utilities for testing the Resonance API
type TestHelper struct {
	Server   *httptest.Server
	MusicDir string
	Store    storage.Store
	Library  services.LibraryService
	Player   *services.Player
	Queue    services.ScanQueue
	Hub      websocket.Hub
}

// NewTestHelper wires the full API over an in-memory store and a temporary music folder
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	gin.SetMode(gin.TestMode)

	musicDir := t.TempDir()
	store := storage.NewMemoryStore()
	library := services.NewLibraryService(store, services.NewScanner(services.NewTagExtractor()))
	require.NoError(t, library.Load())

	hub := websocket.NewHub()
	go hub.Run()

	queue := services.NewScanQueue(library, hub)
	queue.Start()

	player := services.NewPlayer(testMedia{}, library.Settings())

	router := gin.New()
	router.Use(gin.Recovery())
	Routes{
		Health:    NewHealthHandler(library),
		Library:   NewLibraryHandler(library, player),
		Files:     NewFileHandler(library),
		Scans:     NewScanHandler(queue, hub),
		Player:    NewPlayerHandler(player, library),
		Playlists: NewPlaylistHandler(library),
		Settings:  NewSettingsHandler(library, player),
	}.Register(router)

	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		queue.Stop()
		hub.Stop()
	})

	return &TestHelper{
		Server:   server,
		MusicDir: musicDir,
		Store:    store,
		Library:  library,
		Player:   player,
		Queue:    queue,
		Hub:      hub,
	}
}

// id3v1 builds a 128-byte ID3v1 trailer
func id3v1(title, artist, album, year string) []byte {
	tag := make([]byte, 128)
	copy(tag[0:3], "TAG")
	copy(tag[3:33], title)
	copy(tag[33:63], artist)
	copy(tag[63:93], album)
	copy(tag[93:97], year)
	tag[127] = 17
	return tag
}

// WriteTrack creates an audio file under the music folder carrying an ID3v1 tag
func (h *TestHelper) WriteTrack(t *testing.T, name, title, artist, album string) string {
	t.Helper()
	path := filepath.Join(h.MusicDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	data := append(bytes.Repeat([]byte{0}, 512), id3v1(title, artist, album, "2001")...)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// ScanMusicDir adds the music folder to the library synchronously
func (h *TestHelper) ScanMusicDir(t *testing.T) types.ScanResult {
	t.Helper()
	result, err := h.Library.AddFolder(t.Context(), h.MusicDir, nil)
	require.NoError(t, err)
	return result
}

// MakeRequest makes an HTTP request to the test server
func (h *TestHelper) MakeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, h.Server.URL+path, reqBody)
	require.NoError(t, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// DoJSON makes a request and unmarshals the JSON response into target
func (h *TestHelper) DoJSON(t *testing.T, method, path string, requestBody interface{}, target interface{}) *http.Response {
	t.Helper()
	resp := h.MakeRequest(t, method, path, requestBody)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil {
		require.NoError(t, json.Unmarshal(body, target), "body: %s", body)
	}

	return resp
}

// GetJSON makes a GET request and unmarshals JSON response
func (h *TestHelper) GetJSON(t *testing.T, path string, target interface{}) *http.Response {
	t.Helper()
	return h.DoJSON(t, http.MethodGet, path, nil, target)
}

// PostJSON makes a POST request with JSON body and unmarshals JSON response
func (h *TestHelper) PostJSON(t *testing.T, path string, requestBody interface{}, target interface{}) *http.Response {
	t.Helper()
	return h.DoJSON(t, http.MethodPost, path, requestBody, target)
}

// WaitForJobStatus polls the API until a scan job reaches status or the timeout passes
func (h *TestHelper) WaitForJobStatus(t *testing.T, jobID string, status types.JobStatus, timeout time.Duration) types.ScanJob {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		var response struct {
			Job types.ScanJob `json:"job"`
		}
		resp := h.GetJSON(t, "/api/scans/"+jobID, &response)
		if resp.StatusCode == http.StatusOK && response.Job.Status == status {
			return response.Job
		}
		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("job %s did not reach %s within %v", jobID, status, timeout)
	return types.ScanJob{}
}
