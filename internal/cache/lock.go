package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// IdentityLock serializes concurrent runs on the same media identity.
// Distinct identities never contend; the cache itself is only
// append/overwrite-per-identity, so this is the sole cross-process guard
// the pipeline needs.
type IdentityLock struct {
	fl *flock.Flock
}

func NewIdentityLock(dir, id string) *IdentityLock {
	return &IdentityLock{fl: flock.New(filepath.Join(dir, id+".lock"))}
}

// Acquire blocks until the lock is held or ctx is done. The lock directory
// is created on demand; on a fresh cache nothing else has made it yet.
func (l *IdentityLock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	ok, err := l.fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire identity lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return fmt.Errorf("acquire identity lock %s: not acquired", l.fl.Path())
	}
	return nil
}

func (l *IdentityLock) Release() error {
	return l.fl.Unlock()
}
