package services

import "sync"

// progressCounter serialises progress callbacks coming from scan workers
type progressCounter struct {
	mu        sync.Mutex
	processed int
	total     int
	notify    ProgressFunc
}

func newProgressCounter(total int, notify ProgressFunc) *progressCounter {
	return &progressCounter{total: total, notify: notify}
}

func (p *progressCounter) done(file string) {
	if p.notify == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	p.notify(p.processed, p.total, file)
}
