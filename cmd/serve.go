package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"resonance/config"
	"resonance/handlers"
	"resonance/middleware"
	"resonance/services"
	"resonance/types"
	"resonance/websocket"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type ServeParams struct {
	Port    int  `short:"p" help:"Port to listen on (SERVER_PORT overrides)." default:"8080"`
	NoWatch bool `help:"Do not watch library folders for new files." default:"false"`
}

func ServeCmd() *cobra.Command {
	return boa.CmdT[ServeParams]{
		Use:         "serve",
		Short:       "Run the library API server",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *ServeParams, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := StartWebServer(ctx, params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

// StartWebServer starts the web server and blocks until ctx is done
func StartWebServer(ctx context.Context, params *ServeParams) error {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	scanQueue := services.NewScanQueue(a.library, hub)
	scanQueue.Start()
	defer scanQueue.Stop()

	player := services.NewPlayer(services.NewSpeakerTransport(), a.library.Settings())
	if !services.AudioAvailable {
		log.Printf("Warning: audio playback is not available in this build")
	}

	// folders added through the API are watched from then on
	var jobs services.ScanQueue = scanQueue
	if config.GetWatchFolders() && !params.NoWatch {
		watcher, err := startWatcher(ctx, scanQueue, a.library.Settings().Folders)
		if err != nil {
			log.Printf("Warning: folder watching disabled: %v", err)
		} else {
			defer watcher.Close()
			jobs = watchingQueue{ScanQueue: scanQueue, watcher: watcher}
		}
	}

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply middleware
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	// Setup routes
	handlers.Routes{
		Health:    handlers.NewHealthHandler(a.library),
		Library:   handlers.NewLibraryHandler(a.library, player),
		Files:     handlers.NewFileHandler(a.library),
		Scans:     handlers.NewScanHandler(jobs, hub),
		Player:    handlers.NewPlayerHandler(player, a.library),
		Playlists: handlers.NewPlaylistHandler(a.library),
		Settings:  handlers.NewSettingsHandler(a.library, player),
	}.Register(r)

	server := &http.Server{
		Addr:    ":" + config.GetServerPort(params.Port),
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Resonance web server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}
}

// startWatcher watches every remembered folder and enqueues rescans on change
func startWatcher(ctx context.Context, queue services.ScanQueue, folders []string) (services.FolderWatcher, error) {
	watcher, err := services.NewFolderWatcher(queue, services.DefaultDebounce)
	if err != nil {
		return nil, err
	}

	for _, folder := range folders {
		if err := watcher.Watch(folder); err != nil {
			log.Printf("Warning: not watching %s: %v", folder, err)
		}
	}

	go watcher.Run(ctx)
	log.Printf("Watching %d library folders", len(watcher.Roots()))
	return watcher, nil
}

// watchingQueue starts watching every folder it is asked to scan
type watchingQueue struct {
	services.ScanQueue
	watcher services.FolderWatcher
}

func (q watchingQueue) AddJob(rootPath string) types.ScanJob {
	if err := q.watcher.Watch(rootPath); err != nil {
		log.Printf("Warning: not watching %s: %v", rootPath, err)
	}
	return q.ScanQueue.AddJob(rootPath)
}
