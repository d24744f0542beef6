// Package pidlock implements a PID-file lock that keeps scheduled kiosk runs
// from racing each other on one host.
//
// A lock file holds the decimal PID of its holder. Acquire takes the lock when
// the file is missing, when it names a process that no longer exists, or when
// it names the calling process itself (left behind by an earlier aborted run
// with the same identity). A live foreign holder is polled until the timeout
// expires. The read-check-write sequence is serialized across processes by an
// advisory flock on a sibling guard file (see GuardPath).
//
// The guard file is created on first use and left in place on Release.
// Removing it could let two processes flock different inodes for the same
// lock path, so it stays as a single empty file beside each lock file and is
// reused by every later run.
package pidlock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"golang.org/x/sys/unix"
)

// DefaultTimeout is used when Acquire receives a non-positive timeout.
const DefaultTimeout = 10 * time.Second

const pollInterval = 100 * time.Millisecond

// ErrLockContention reports that another live process holds the lock.
var ErrLockContention = errors.New("lock held by another process")

// ContentionError carries the holder's PID. It matches ErrLockContention
// with errors.Is.
type ContentionError struct {
	Path string
	PID  int
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("lock %s held by running process %d", e.Path, e.PID)
}

func (e *ContentionError) Unwrap() error { return ErrLockContention }

// Lock is a held PID lock.
type Lock struct {
	path  string
	guard *flock.Flock
	pid   int
	held  bool
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock at path, waiting up to timeout for a live holder to
// go away.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("lock path is empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}

	lock := &Lock{path: path, guard: flock.New(GuardPath(path)), pid: os.Getpid()}
	deadline := time.Now().Add(timeout)
	for {
		holder, err := lock.tryAcquire(ctx)
		if err != nil {
			return nil, err
		}
		if holder == 0 {
			lock.held = true
			return lock, nil
		}
		if !time.Now().Before(deadline) {
			return nil, &ContentionError{Path: path, PID: holder}
		}
		wait := min(pollInterval, time.Until(deadline))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryAcquire returns 0 once the lock file records our PID, or the PID of the
// live process that holds it.
func (l *Lock) tryAcquire(ctx context.Context) (int, error) {
	ok, err := l.guard.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return 0, fmt.Errorf("lock guard %s: %w", l.guard.Path(), err)
	}
	if !ok {
		return 0, fmt.Errorf("lock guard %s: not acquired", l.guard.Path())
	}
	defer func() { _ = l.guard.Unlock() }()

	holder, err := ReadPID(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		// unreadable or corrupt content is treated as stale
	case holder == l.pid:
		// left over from an earlier run of this process identity
	case Alive(holder):
		return holder, nil
	}

	if err := writePID(l.path, l.pid); err != nil {
		return 0, err
	}
	return 0, nil
}

// GuardPath returns the persistent flock file that serializes access to the
// lock file at path.
func GuardPath(path string) string {
	return path + ".guard"
}

// Release removes the lock file if it still records our PID. Calling it more
// than once is harmless.
func (l *Lock) Release() error {
	if l == nil || !l.held {
		return nil
	}
	l.held = false

	if err := l.guard.Lock(); err != nil {
		return fmt.Errorf("lock guard %s: %w", l.guard.Path(), err)
	}
	defer func() { _ = l.guard.Unlock() }()

	holder, err := ReadPID(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read lock %s: %w", l.path, err)
	}
	if holder != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}

// With runs fn while holding the lock at path. The lock is released on every
// exit path, including panics.
func With(ctx context.Context, path string, timeout time.Duration, fn func() error) (err error) {
	lock, err := Acquire(ctx, path, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}

// ReadPID returns the PID recorded in the lock file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid in %s: %w", path, err)
	}
	return pid, nil
}

// Alive reports whether pid names an existing process.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func writePID(path string, pid int) error {
	if err := renameio.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write lock %s: %w", path, err)
	}
	return nil
}
