// Package lock serialises work on a single key (a transaction natural key,
// a bank account sync target) across goroutines and, with Redis, across
// processes. Work on different keys never contends.
package lock

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyKey is returned when a lock is requested for a blank key.
var ErrEmptyKey = errors.New("lock key cannot be empty")

// ErrLockLost is the cancellation cause seen by work whose lock could not
// be kept alive.
var ErrLockLost = errors.New("lock lost while held")

// Locker runs fn while holding the lock for key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Key joins parts into a namespaced lock key.
func Key(parts ...string) string {
	return "ledgersync:lock:" + strings.Join(parts, ":")
}
