package procurement

import "sync"

// recordLocks hands out one mutex per record id so the update+move pair an
// operation performs is never interleaved with another writer on the same
// record. Locks are never reclaimed; records are never deleted, so the map
// grows with the record collection itself.
type recordLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRecordLocks() *recordLocks {
	return &recordLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *recordLocks) acquire(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
