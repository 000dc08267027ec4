package study

import "sync"

// cardLocks hands out one mutex per card id. Entries are dropped once no
// caller holds or waits for them.
type cardLocks struct {
	mu    sync.Mutex
	locks map[string]*cardLock
}

type cardLock struct {
	sync.Mutex
	refs int
}

func newCardLocks() *cardLocks {
	return &cardLocks{locks: make(map[string]*cardLock)}
}

// lock blocks until the card is free and returns the matching unlock.
func (l *cardLocks) lock(cardID string) func() {
	l.mu.Lock()
	cl, ok := l.locks[cardID]
	if !ok {
		cl = &cardLock{}
		l.locks[cardID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()

	return func() {
		cl.Unlock()

		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, cardID)
		}
		l.mu.Unlock()
	}
}

func (l *cardLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
