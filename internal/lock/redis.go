package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"

	"ledgersync/internal/logger"
)

// RedisOptions tunes the redsync mutex.
type RedisOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultRedisOptions waits up to roughly ten seconds for a busy key.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     30 * time.Second,
		Tries:      100,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker is a Locker backed by a redsync mutex per key.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

// NewRedisLocker creates a RedisLocker on top of an existing client.
func NewRedisLocker(client goredislib.UniversalClient, opts RedisOptions) *RedisLocker {
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultRedisOptions().Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = DefaultRedisOptions().Tries
	}
	return &RedisLocker{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

// NewRedisLockerFromURL parses a redis:// URL, pings the server and returns
// a locker using it.
func NewRedisLockerFromURL(ctx context.Context, url string, opts RedisOptions) (*RedisLocker, *goredislib.Client, error) {
	redisOpts, err := goredislib.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := goredislib.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisLocker(client, opts), client, nil
}

// WithLock acquires the mutex for key, runs fn and releases it. Errors
// from fn are returned unchanged. The mutex is extended every third of its
// expiry while fn runs; if an extension fails the context handed to fn is
// cancelled with ErrLockLost.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	mutex := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			logger.Get().Warnw("failed to release lock", "lock_key", key, "unlock_ok", ok, "error", err)
		}
	}()

	fnCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan struct{})
	extended := make(chan struct{})
	go func() {
		defer close(extended)
		l.keepAlive(fnCtx, mutex, key, done, cancel)
	}()

	err := fn(fnCtx)
	close(done)
	<-extended
	return err
}

func (l *RedisLocker) keepAlive(ctx context.Context, mutex *redsync.Mutex, key string, done <-chan struct{}, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(l.opts.Expiry / 3)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok, err := mutex.ExtendContext(ctx); !ok || err != nil {
				logger.Get().Errorw("failed to extend lock, abandoning work", "lock_key", key, "error", err)
				cancel(ErrLockLost)
				return
			}
		}
	}
}
