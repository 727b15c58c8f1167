package walker

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
)

// FileInfo represents a regular file found under the walk root
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Relative path from root
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// Dir is one directory of the tree together with the regular files directly inside it
type Dir struct {
	Path    string
	RelPath string
	Files   []FileInfo
	Subdirs []string // names, not paths
}

// Walker walks a directory tree with exclude pattern support
type Walker struct {
	fs       billy.Filesystem
	root     string
	excludes []string
}

// NewWalker creates a new tree walker
func NewWalker(fs billy.Filesystem, root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	if err := fsutil.ValidateDir(fs, absRoot); err != nil {
		return nil, err
	}

	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return &Walker{
		fs:       fs,
		root:     absRoot,
		excludes: excludes,
	}, nil
}

// Root returns the absolute walk root
func (w *Walker) Root() string {
	return w.root
}

// Dirs lazily yields every directory of the tree, root first. Each
// directory is read once when it is reached; subdirectories are taken
// from that snapshot, so directories the caller creates while handling a
// Dir are never visited. A read failure is yielded as an error and the
// walk goes on with the next directory.
func (w *Walker) Dirs() iter.Seq2[Dir, error] {
	return func(yield func(Dir, error) bool) {
		stack := []string{w.root}

		for len(stack) > 0 {
			dirPath := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			dir, err := w.readDir(dirPath)
			if err != nil {
				if !yield(Dir{Path: dirPath}, err) {
					return
				}
				continue
			}

			if !yield(dir, nil) {
				return
			}

			// push in reverse so that subdirectories pop in name order
			for i := len(dir.Subdirs) - 1; i >= 0; i-- {
				stack = append(stack, filepath.Join(dirPath, dir.Subdirs[i]))
			}
		}
	}
}

// Files lazily yields every regular file of the tree.
func (w *Walker) Files() iter.Seq2[FileInfo, error] {
	return func(yield func(FileInfo, error) bool) {
		for dir, err := range w.Dirs() {
			if err != nil {
				if !yield(FileInfo{Path: dir.Path}, err) {
					return
				}
				continue
			}
			for _, f := range dir.Files {
				if !yield(f, nil) {
					return
				}
			}
		}
	}
}

// Walk walks the file tree and returns matching files
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo
	for f, err := range w.Files() {
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

// Analyze counts files and sums their sizes, optionally only directly under root
func (w *Walker) Analyze(recursive bool) (count int, size int64, err error) {
	for dir, derr := range w.Dirs() {
		if derr != nil {
			return 0, 0, fmt.Errorf("walk directory: %w", derr)
		}
		for _, f := range dir.Files {
			count++
			size += f.Size
		}
		if !recursive {
			break
		}
	}
	return count, size, nil
}

func (w *Walker) readDir(dirPath string) (Dir, error) {
	entries, err := w.fs.ReadDir(dirPath)
	if err != nil {
		return Dir{}, fmt.Errorf("read dir %q: %w", dirPath, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	relDir, err := filepath.Rel(w.root, dirPath)
	if err != nil {
		return Dir{}, fmt.Errorf("get relative path: %w", err)
	}

	dir := Dir{Path: dirPath, RelPath: relDir}
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())
		relPath := filepath.Join(relDir, entry.Name())
		relPathForward := filepath.ToSlash(relPath)

		if entry.IsDir() {
			if !w.isDirExcluded(relPathForward) {
				dir.Subdirs = append(dir.Subdirs, entry.Name())
			}
			continue
		}

		// symlinks, devices and sockets are not followed
		if !entry.Mode().IsRegular() {
			continue
		}

		if w.isExcluded(relPathForward) {
			continue
		}

		dir.Files = append(dir.Files, FileInfo{
			Path:    fullPath,
			RelPath: relPath,
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
			Mode:    entry.Mode(),
		})
	}
	return dir, nil
}

// isDirExcluded checks whole-directory patterns (those ending with /)
func (w *Walker) isDirExcluded(path string) bool {
	for _, pattern := range w.excludes {
		if !strings.HasSuffix(pattern, "/") {
			continue
		}
		if matched, _ := doublestar.Match(strings.TrimSuffix(pattern, "/"), path); matched {
			return true
		}
	}
	return false
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(path, "/")
			for i := 1; i < len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}
