package service

import "sync"

// workspaceLocks hands out one mutex per workspace id so two overlapping
// runs (a slow batch plus the next hourly trigger) can never rewrite the
// same workspace's calendar at the same time.
type workspaceLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newWorkspaceLocks() *workspaceLocks {
	return &workspaceLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *workspaceLocks) get(workspaceID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[workspaceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[workspaceID] = m
	}
	return m
}

// TryAcquire attempts to take the workspace lock without blocking. The
// returned release func is nil when the lock is already held elsewhere.
func (l *workspaceLocks) TryAcquire(workspaceID uint) func() {
	m := l.get(workspaceID)
	if !m.TryLock() {
		return nil
	}
	return m.Unlock
}
