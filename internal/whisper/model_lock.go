package whisper

import "sync"

// modelLocks hands out one mutex per model path. whisper.cpp contexts created
// from the same loaded model share its inference state, so a Process call and
// the segment reads that follow it must not interleave with another job on
// that model.
type modelLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *modelLocks) lock(path string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[path]
	if !ok {
		m = &sync.Mutex{}
		l.locks[path] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
