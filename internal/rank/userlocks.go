package rank

import "sync"

// UserLocks serializes writes per user. Two concurrent record calls racing on
// the same stored order can corrupt it, so every read-modify-write of a
// user's data holds that user's lock. Different users never contend.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the named user's lock and returns the matching unlock func.
func (l *UserLocks) Lock(userID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
