// Package async runs save transfers off the calling goroutine.
// Every save device uses a Saver so that completion semantics are the same
// across platforms: one result per accepted save, delivered from a worker
// goroutine.
package async

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
)

// CommitFunc stores the bytes produced by a write transfer.
// It runs on the worker goroutine.
type CommitFunc func(loc domain.Location, data []byte) error

// Saver tracks in-flight saves for a device.
type Saver struct {
	mu       sync.Mutex
	closed   bool
	inflight int
	wg       sync.WaitGroup

	// now is replaceable for tests.
	now func() time.Time
}

// NewSaver creates a saver with no saves in flight.
func NewSaver() *Saver {
	return &Saver{now: time.Now}
}

// Save runs write into a buffer and then commit on a new goroutine.
// done is called exactly once with the outcome. After Close, done
// receives domain.ErrDeviceClosed and nothing is written.
func (s *Saver) Save(loc domain.Location, write driven.WriteFunc, commit CommitFunc, done driven.SaveCompleted) {
	result := domain.SaveResult{
		RequestID: uuid.NewString(),
		Location:  loc,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		result.Started = s.now()
		result.Finished = result.Started
		result.Err = domain.ErrDeviceClosed
		go deliver(done, result)
		return
	}
	s.inflight++
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		result.Started = s.now()
		result.Err = run(loc, write, commit)
		result.Finished = s.now()

		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()

		deliver(done, result)
	}()
}

// Busy reports whether any save is still running.
func (s *Saver) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Close rejects new saves and waits for in-flight ones to finish.
func (s *Saver) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// run executes the transfer, turning a panic into an error result.
func run(loc domain.Location, write driven.WriteFunc, commit CommitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrTransferPanicked, r)
		}
	}()

	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("write transfer for %s: %w", loc, err)
	}
	if err := commit(loc, buf.Bytes()); err != nil {
		return fmt.Errorf("committing %s: %w", loc, err)
	}
	return nil
}

func deliver(done driven.SaveCompleted, result domain.SaveResult) {
	if done != nil {
		done(result)
	}
}
