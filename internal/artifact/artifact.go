// Package artifact tracks the intermediate files produced by one pipeline run
// so they can be removed once the run is over, whatever its outcome.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Set is an ordered collection of temporary paths owned by a single run.
type Set struct {
	mu    sync.Mutex
	paths []string
}

// Add records path for later removal. Empty paths are ignored.
func (s *Set) Add(path string) {
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// Paths returns a snapshot of the recorded paths in insertion order.
func (s *Set) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

// Cleanup removes every recorded path and forgets them, so each entry is
// deleted at most once. Failures are logged and never returned.
func (s *Set) Cleanup(logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}

	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	removed := 0
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			logger.Warn("failed to delete temp file", zap.String("path", path), zap.Error(err))
		}
	}

	if removed > 0 {
		logger.Debug("temp files removed", zap.Int("count", removed))
	}
	return removed
}
