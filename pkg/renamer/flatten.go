package renamer

import (
	"context"
	"path/filepath"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
)

// FlattenToRoot collapses the tree into flat files directly under root.
// Every file is staged under a tree-wide unique generated name, top-level
// directories left without files are removed, and the staged files are
// moved up into root.
func (r *Renamer) FlattenToRoot(ctx context.Context, root, prefix string, opts Options) (Stats, error) {
	w, err := walker.NewWalker(r.fs, root, append([]string{stagingExclude}, opts.Excludes...))
	if err != nil {
		return Stats{}, err
	}
	root = w.Root()

	var files []walker.FileInfo
	for f, err := range w.Files() {
		if err != nil {
			r.logger.Error("walk", f.Path, err)
			continue
		}
		files = append(files, f)
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	reserved, err := r.keptEntries(root, files)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(files)}
	reg := newRegistry()

	r.logger.PhaseStart("Flattening files", len(files))
	defer func() { r.logger.PhaseComplete("Flattening files", stats.Renamed) }()

	if opts.DryRun {
		for _, f := range files {
			stem, ext := NewName(prefix, f)
			r.logger.Move(f.Path, filepath.Join(root, reg.next(stem, ext, reserved)))
			stats.Renamed++
		}
		return stats, nil
	}

	staging, err := fsutil.StagingDir(ctx, r.fs, root, StagingPrefix, r.backoff)
	if err != nil {
		return stats, err
	}

	moves := r.stage(files, staging, prefix, reg, reserved, &stats)
	stats.PrunedDirs = r.removeEmptyTopLevel(root, staging)
	r.unstage(moves, root, &stats)

	return stats, r.removeStaging(ctx, staging)
}

// keptEntries names the entries of dir that are not among the staged
// files: subdirectories, excluded files, symlinks and other special files.
// They stay where they are, so generated names must avoid them.
func (r *Renamer) keptEntries(dir string, files []walker.FileInfo) (map[string]bool, error) {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	staged := make(map[string]bool)
	for _, f := range files {
		if filepath.Dir(f.Path) == dir {
			staged[filepath.Base(f.Path)] = true
		}
	}

	var names []string
	for _, e := range entries {
		if !staged[e.Name()] {
			names = append(names, e.Name())
		}
	}
	return reservedSet(names), nil
}

// removeEmptyTopLevel deletes top-level directories, except staging, that
// no longer hold any file. Directories still holding excluded or unmovable
// files are kept.
func (r *Renamer) removeEmptyTopLevel(root, staging string) int {
	entries, err := r.fs.ReadDir(root)
	if err != nil {
		r.logger.Error("read dir", root, err)
		return 0
	}

	removed := 0
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if !e.IsDir() || path == staging {
			continue
		}

		hasFiles, err := fsutil.HasFiles(r.fs, path)
		if err != nil {
			r.logger.Error("read dir", path, err)
			continue
		}
		if hasFiles {
			r.logger.Debug("keeping non-empty directory", "path", path)
			continue
		}

		if err := fsutil.RemoveAll(r.fs, path); err != nil {
			r.logger.Error("remove dir", path, err)
			continue
		}
		removed++
	}
	return removed
}
