package chat

import "sync"

// roomLocks serializes mutations per room so that message insert, room
// last-activity bump and notification creation are observed atomically by
// subsequent reads. The registry itself is guarded by its own mutex; entries
// live for the room's lifetime.
type roomLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *roomLocks) get(roomID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[roomID] = m
	}
	return m
}

// Lock acquires the room's mutex and returns the unlock function.
func (l *roomLocks) Lock(roomID uint) func() {
	m := l.get(roomID)
	m.Lock()
	return m.Unlock
}
