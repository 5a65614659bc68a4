// Package lock provides keyed mutual exclusion for units of work.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when a key could not be locked before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Handle releases a held key.
type Handle interface {
	Release(ctx context.Context) error
}

// Locker obtains exclusive ownership of a key, waiting until ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Handle, error)
}
