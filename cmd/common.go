package cmd

import (
	"fmt"
	"log"
	"resonance/config"
	"resonance/services"
	"resonance/storage"

	"github.com/GiGurra/boa/pkg/boa"
)

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// app is the library state shared by every command
type app struct {
	store   storage.Store
	library services.LibraryService
}

// openApp opens the configured store and loads the library from it
func openApp() (*app, error) {
	dataDir := config.GetDataDir()
	store, err := storage.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store in %s: %w", dataDir, err)
	}

	scanner := services.NewScanner(
		services.NewTagExtractor(),
		services.WithWorkers(config.GetScanWorkers()),
	)
	library := services.NewLibraryService(store, scanner)
	if err := library.Load(); err != nil {
		store.Close()
		return nil, err
	}

	return &app{store: store, library: library}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Warning: failed to close store: %v", err)
	}
}
