package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"resonance/types"
	"resonance/websocket"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScanQueue runs folder scans one after another in the background
type ScanQueue interface {
	Start()
	Stop()
	AddJob(rootPath string) types.ScanJob
	GetJob(id string) (types.ScanJob, bool)
	GetAllJobs() []types.ScanJob
	CancelJob(id string) bool
}

// scanQueue manages scan jobs
type scanQueue struct {
	jobs    map[string]*types.ScanJob
	order   []string
	queue   chan string
	mu      sync.RWMutex
	library LibraryService
	hub     websocket.Hub

	ctx     context.Context
	cancel  context.CancelFunc
	started sync.Once
	wg      sync.WaitGroup
}

// NewScanQueue creates a scan queue feeding library. hub may be nil.
func NewScanQueue(library LibraryService, hub websocket.Hub) ScanQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &scanQueue{
		jobs:    make(map[string]*types.ScanJob),
		queue:   make(chan string, 100), // Buffer for 100 jobs
		library: library,
		hub:     hub,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob queues a scan of rootPath and returns it in the queued state
func (sq *scanQueue) AddJob(rootPath string) types.ScanJob {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job := &types.ScanJob{
		ID:        uuid.New().String(),
		Root:      rootPath,
		Status:    types.JobStatusQueued,
		CreatedAt: time.Now(),
	}
	sq.jobs[job.ID] = job
	sq.order = append(sq.order, job.ID)

	select {
	case sq.queue <- job.ID:
	default:
		now := time.Now()
		job.Status = types.JobStatusFailed
		job.Error = "scan queue is full"
		job.CompletedAt = &now
	}

	return *job
}

// GetJob retrieves a job by ID
func (sq *scanQueue) GetJob(id string) (types.ScanJob, bool) {
	sq.mu.RLock()
	defer sq.mu.RUnlock()

	job, exists := sq.jobs[id]
	if !exists {
		return types.ScanJob{}, false
	}
	return *job, true
}

// GetAllJobs returns all jobs, oldest first
func (sq *scanQueue) GetAllJobs() []types.ScanJob {
	sq.mu.RLock()
	defer sq.mu.RUnlock()

	jobs := make([]types.ScanJob, 0, len(sq.order))
	for _, id := range sq.order {
		jobs = append(jobs, *sq.jobs[id])
	}
	return jobs
}

// CancelJob cancels a queued job. Running jobs cannot be cancelled.
func (sq *scanQueue) CancelJob(id string) bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return false
	}

	if job.Status == types.JobStatusQueued {
		job.Status = types.JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		return true
	}

	return false
}

// updateProgress records per-file progress and broadcasts it
func (sq *scanQueue) updateProgress(id string, processed, total int, currentFile string) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Processed = processed
	job.Total = total

	if sq.hub != nil && total > 0 {
		percent := float64(processed) / float64(total) * 100
		sq.hub.BroadcastProgress(id, "progress", string(job.Status), currentFile,
			fmt.Sprintf("Read %d of %d files", processed, total), percent)
	}
}

// setStatus updates job status and broadcasts the change
func (sq *scanQueue) setStatus(id string, status types.JobStatus, message, errorMsg string) {
	sq.mu.Lock()
	defer sq.mu.Unlock()

	job, exists := sq.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	now := time.Now()
	if status == types.JobStatusProcessing && job.StartedAt == nil {
		job.StartedAt = &now
	} else if status == types.JobStatusCompleted || status == types.JobStatusFailed || status == types.JobStatusCancelled {
		job.CompletedAt = &now
	}

	if sq.hub != nil {
		msgType := "status"
		progress := 0.0
		if job.Total > 0 {
			progress = float64(job.Processed) / float64(job.Total) * 100
		}

		switch status {
		case types.JobStatusCompleted:
			msgType = "complete"
			progress = 100.0
		case types.JobStatusFailed:
			msgType = "error"
			message = errorMsg
		}

		sq.hub.BroadcastProgress(id, msgType, string(status), "", message, progress)
	}
}

// Start launches the single worker. Scans never overlap.
func (sq *scanQueue) Start() {
	sq.started.Do(func() {
		sq.wg.Add(1)
		go sq.worker()
	})
}

// Stop cancels the running scan and stops the worker
func (sq *scanQueue) Stop() {
	sq.cancel()
	sq.wg.Wait()
}

// worker processes jobs from the queue
func (sq *scanQueue) worker() {
	defer sq.wg.Done()

	for {
		select {
		case <-sq.ctx.Done():
			return
		case id := <-sq.queue:
			sq.process(id)
		}
	}
}

func (sq *scanQueue) process(id string) {
	job, exists := sq.GetJob(id)
	if !exists || job.Status == types.JobStatusCancelled {
		return
	}

	sq.setStatus(id, types.JobStatusProcessing, fmt.Sprintf("Scanning %s", job.Root), "")

	result, err := sq.library.AddFolder(sq.ctx, job.Root, func(processed, total int, currentFile string) {
		sq.updateProgress(id, processed, total, currentFile)
	})

	sq.mu.Lock()
	if j, ok := sq.jobs[id]; ok {
		j.Scanned = result.Scanned
		j.Added = result.Added
	}
	sq.mu.Unlock()

	var persistErr *PersistenceError
	switch {
	case err == nil:
		sq.setStatus(id, types.JobStatusCompleted, ScanSummary(result), "")
		log.Printf("Scan job %s completed: %s", id, ScanSummary(result))
	case errors.As(err, &persistErr):
		// the library was merged; only saving failed
		sq.setStatus(id, types.JobStatusCompleted, ScanSummary(result), err.Error())
		log.Printf("Scan job %s completed without saving: %v", id, err)
	case errors.Is(err, context.Canceled):
		sq.setStatus(id, types.JobStatusCancelled, "scan cancelled", "")
	default:
		sq.setStatus(id, types.JobStatusFailed, "", err.Error())
		log.Printf("Scan job %s failed: %v", id, err)
	}
}

// ScanSummary turns a scan result into the message shown to the user
func ScanSummary(result types.ScanResult) string {
	switch {
	case result.Scanned == 0:
		return "No audio files found in the selected folder"
	case result.Added == 0:
		return "All songs from this folder are already in your library"
	default:
		return fmt.Sprintf("Added %d new songs to library", result.Added)
	}
}
