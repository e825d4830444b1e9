package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"resonance/config"
)

// Open builds the Store selected by the environment, rooted at dataDir
func Open(dataDir string) (Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch config.GetStoreBackend() {
	case config.StoreJSON:
		return NewFileStore(dataDir)
	default:
		return NewSQLiteStore(filepath.Join(dataDir, "library.db"))
	}
}
