package fsutil

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// PruneEmptyDirs removes, bottom-up, every directory below root whose
// subtree holds no files. root itself is kept. Failures are passed to
// onError and pruning continues; the removed directories are returned.
func PruneEmptyDirs(fs billy.Filesystem, root string, onError func(path string, err error)) []string {
	var removed []string
	pruneDir(fs, root, true, &removed, onError)
	return removed
}

func pruneDir(fs billy.Filesystem, dir string, isRoot bool, removed *[]string, onError func(string, error)) bool {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		onError(dir, err)
		return false
	}

	empty := true
	for _, e := range entries {
		if !e.IsDir() {
			empty = false
			continue
		}
		if !pruneDir(fs, filepath.Join(dir, e.Name()), false, removed, onError) {
			empty = false
		}
	}

	if !empty || isRoot {
		return false
	}
	if err := fs.Remove(dir); err != nil {
		onError(dir, err)
		return false
	}
	*removed = append(*removed, dir)
	return true
}
