// Package fsutil is the filesystem boundary shared by every engine. All
// operations go through a billy.Filesystem so trees can live on disk or in
// memory.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

var (
	// ErrNotDirectory is returned when an operation root is missing or is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrOverlap is returned when two operation roots are the same or nested.
	ErrOverlap = errors.New("directories overlap")
)

// NewOS returns a filesystem rooted at "/" that accepts absolute host paths.
//
//nolint:ireturn
func NewOS() billy.Filesystem {
	return osfs.New("/")
}

// NewMemory returns an empty in-memory filesystem. Its Rename also moves
// every path that has the source as a plain string prefix ("a" takes
// "a(1)" along), so staged renames must run on NewOS.
//
//nolint:ireturn
func NewMemory() billy.Filesystem {
	return memfs.New()
}

// ValidateDir fails unless path exists and is a directory.
func ValidateDir(fs billy.Filesystem, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotDirectory, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return nil
}

// CheckOverlap fails when a and b are the same directory or one contains the other.
func CheckOverlap(a, b string) error {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if a == b || isWithin(a, b) || isWithin(b, a) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, a, b)
	}
	return nil
}

func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CopyFile copies src to dst, creating parent directories of dst and
// carrying over the source mode and modification time when the
// filesystem supports it.
func CopyFile(fs billy.Filesystem, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if ch, ok := fs.(billy.Change); ok {
		if err := ch.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return fmt.Errorf("set times: %w", err)
		}
	}
	return nil
}

// HasFiles reports whether any regular file exists below dir.
func HasFiles(fs billy.Filesystem, dir string) (bool, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true, nil
		}
		found, err := HasFiles(fs, filepath.Join(dir, e.Name()))
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// Ext returns the extension of name. Names whose only dots are leading
// ones, like ".bashrc", have none.
func Ext(name string) string {
	base := filepath.Base(name)
	if !strings.Contains(strings.TrimLeft(base, "."), ".") {
		return ""
	}
	return filepath.Ext(base)
}

// RemoveAll removes path and everything below it.
func RemoveAll(fs billy.Filesystem, path string) error {
	if err := util.RemoveAll(fs, path); err != nil {
		return fmt.Errorf("remove all %q: %w", path, err)
	}
	return nil
}
