package services

import (
	"errors"
	"fmt"
)

var (
	ErrScanInProgress   = errors.New("a scan is already in progress")
	ErrTrackNotFound    = errors.New("track not found")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrNoTrackSelected  = errors.New("no song selected")
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// PersistenceError reports a failed save. The in-memory state it refers to is
// still valid; only durability across restarts is lost.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
