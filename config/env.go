package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var Env = map[string]string{
	"RESONANCE_DATA_DIR":     os.Getenv("RESONANCE_DATA_DIR"),
	"RESONANCE_STORE":        os.Getenv("RESONANCE_STORE"),
	"RESONANCE_SCAN_WORKERS": os.Getenv("RESONANCE_SCAN_WORKERS"),
	"RESONANCE_MUSIC_DIR":    os.Getenv("RESONANCE_MUSIC_DIR"),
	"RESONANCE_WATCH":        os.Getenv("RESONANCE_WATCH"),
	"SERVER_PORT":            os.Getenv("SERVER_PORT"),
	"CORS_ORIGINS":           os.Getenv("CORS_ORIGINS"),
}

// Store backends
const (
	StoreSQLite = "sqlite"
	StoreJSON   = "json"
)

func lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return Env[key]
}

// GetDataDir returns the directory holding the persisted library, playlists and settings
func GetDataDir() string {
	if dir := lookup("RESONANCE_DATA_DIR"); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", ".resonance")
	}

	return filepath.Join(homeDir, ".resonance")
}

// GetStoreBackend returns "sqlite" unless RESONANCE_STORE asks for "json"
func GetStoreBackend() string {
	if strings.EqualFold(lookup("RESONANCE_STORE"), StoreJSON) {
		return StoreJSON
	}
	return StoreSQLite
}

// GetScanWorkers returns how many files are read in parallel during a scan.
// One worker keeps the scan strictly sequential.
func GetScanWorkers() int {
	n, err := strconv.Atoi(lookup("RESONANCE_SCAN_WORKERS"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// GetMusicDir returns the folder scanned when the user does not name one
func GetMusicDir() string {
	if dir := lookup("RESONANCE_MUSIC_DIR"); dir != "" {
		return dir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, "Music")
}

// GetServerPort returns SERVER_PORT, or fallback when it is unset
func GetServerPort(fallback int) string {
	if port := lookup("SERVER_PORT"); port != "" {
		return port
	}
	return strconv.Itoa(fallback)
}

// GetWatchFolders reports whether library folders are watched for new files
func GetWatchFolders() bool {
	v := lookup("RESONANCE_WATCH")
	if v == "" {
		return true
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return enabled
}

// GetCORSOrigins returns the origins allowed to call the API
func GetCORSOrigins() []string {
	corsOrigins := lookup("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000,http://localhost:5173,http://localhost:5174" // Default for React dev
	}

	var origins []string
	for _, origin := range strings.Split(corsOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
