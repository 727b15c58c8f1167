package fsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrTimeout is returned when a bounded wait runs out of attempts.
var ErrTimeout = errors.New("timed out waiting for filesystem")

// Backoff bounds a polling loop.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultBackoff polls for roughly five seconds in total.
var DefaultBackoff = Backoff{Attempts: 20, Initial: 10 * time.Millisecond, Max: 500 * time.Millisecond}

// Wait polls cond until it reports true, doubling the delay between
// attempts up to Max. It gives up with ErrTimeout after Attempts tries.
func (b Backoff) Wait(ctx context.Context, what string, cond func() (bool, error)) error {
	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := b.Initial

	for i := 0; i < attempts; i++ {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
	return fmt.Errorf("%w: %s", ErrTimeout, what)
}

// WaitEmpty waits until no files remain below dir.
func WaitEmpty(ctx context.Context, fs billy.Filesystem, dir string, b Backoff) error {
	return b.Wait(ctx, "empty "+dir, func() (bool, error) {
		found, err := HasFiles(fs, dir)
		return !found, err
	})
}

// WaitExists waits until path is observably present (or absent when exist is false).
func WaitExists(ctx context.Context, fs billy.Filesystem, path string, exist bool, b Backoff) error {
	return b.Wait(ctx, "presence of "+path, func() (bool, error) {
		_, err := fs.Stat(path)
		switch {
		case err == nil:
			return exist, nil
		case os.IsNotExist(err):
			return !exist, nil
		default:
			return false, err
		}
	})
}

// StagingDir creates a fresh, uniquely named directory inside parent.
func StagingDir(ctx context.Context, fs billy.Filesystem, parent, prefix string, b Backoff) (string, error) {
	dir, err := util.TempDir(fs, parent, prefix)
	if err != nil {
		return "", fmt.Errorf("create staging dir in %q: %w", parent, err)
	}
	if err := WaitExists(ctx, fs, dir, true, b); err != nil {
		return "", err
	}
	return dir, nil
}

// RemoveStaging waits for dir to drain and then removes it.
func RemoveStaging(ctx context.Context, fs billy.Filesystem, dir string, b Backoff) error {
	if err := WaitEmpty(ctx, fs, dir, b); err != nil {
		return err
	}
	if err := RemoveAll(fs, dir); err != nil {
		return err
	}
	return WaitExists(ctx, fs, dir, false, b)
}
