package services

import (
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// saveCompleted is handed to the device with every accepted save. It only
// reports: the file's state is never touched here.
func (f *PersistentFile) saveCompleted(result domain.SaveResult) {
	if result.Err != nil {
		logger.Warn("save of %s failed: %v", result.Location, result.Err)
	} else {
		logger.Info("save completed: %s (%s)", result.Location, result.Duration())
	}

	for _, observe := range f.observers {
		f.notify(observe, result)
	}
}

// notify delivers result to one observer. An observer that panics is logged
// and skipped so the remaining observers still run.
func (f *PersistentFile) notify(observe driven.SaveCompleted, result domain.SaveResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("save observer for %s panicked: %v", f.location, r)
		}
	}()
	observe(result)
}
