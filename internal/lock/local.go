package lock

import (
	"context"
	"fmt"
	"sync"
)

// LocalLocker is an in-process Locker for single-instance deployments and tests.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Handle, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return &localHandle{locker: l, key: key, slot: s}, nil
	case <-ctx.Done():
		l.drop(key, s)
		return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}
}

func (l *LocalLocker) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

type localHandle struct {
	once   sync.Once
	locker *LocalLocker
	key    string
	slot   *slot
}

func (h *localHandle) Release(context.Context) error {
	h.once.Do(func() {
		<-h.slot.ch
		h.locker.drop(h.key, h.slot)
	})
	return nil
}
