package cart

import "sync"

// UserLocks serializes mutations per user so that two rapid requests from
// the same user cannot interleave and lose updates. Carts of different users
// share no state, so their locks are independent.
type UserLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[string]*userLock)}
}

// Acquire blocks until the caller holds the user's lock and returns the
// release function. Lock entries are removed once no caller references them.
func (l *UserLocks) Acquire(userID string) (release func()) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()

	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
