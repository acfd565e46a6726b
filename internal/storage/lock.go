package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked Lock call retries the file lock.
const lockRetryDelay = 50 * time.Millisecond

// Lock takes an exclusive advisory lock on a sibling ".lock" file so that
// concurrent invocations do not interleave multi-step writes. The returned
// function releases it. In-memory stores have nothing to share and get a no-op.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	if s.path == "" {
		return func() error { return nil }, nil
	}

	fl := flock.New(s.path + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("locking %s: lock not acquired", fl.Path())
	}
	return fl.Unlock, nil
}
