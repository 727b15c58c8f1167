package renamer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

// TimeLayout formats modification times into generated names.
const TimeLayout = "2006-01-02_15_04_05"

// StagingPrefix starts the name of every staging directory.
const StagingPrefix = ".strict-dir-sync-"

// stagingExclude keeps staging directories left over from an interrupted
// run out of every walk.
const stagingExclude = "**/" + StagingPrefix + "*/"

type Options struct {
	Excludes []string
	DryRun   bool
}

type Stats struct {
	Files   int
	Renamed int
	Failed  int
	// PrunedDirs is only set by FlattenToRoot.
	PrunedDirs int
}

type Renamer struct {
	fs      billy.Filesystem
	logger  logger.Logger
	backoff fsutil.Backoff
}

func NewRenamer(fs billy.Filesystem, logger logger.Logger) *Renamer {
	return &Renamer{
		fs:      fs,
		logger:  logger,
		backoff: fsutil.DefaultBackoff,
	}
}

// WithBackoff overrides the bounds used when waiting on staging directories.
func (r *Renamer) WithBackoff(b fsutil.Backoff) *Renamer {
	r.backoff = b
	return r
}

type move struct {
	from   string
	staged string
	name   string
}

// NewName builds prefix + modification time, without disambiguation.
func NewName(prefix string, f walker.FileInfo) (stem, ext string) {
	return prefix + f.ModTime.Local().Format(TimeLayout), fsutil.Ext(f.Path)
}

// Rename gives every file a name derived from its modification time,
// keeping it in its directory. Each directory is staged on its own: files
// move into a fresh staging directory under their new names and then back.
// With uniqueAcrossTree the generated names are distinct over the whole
// tree, otherwise only within each directory.
func (r *Renamer) Rename(ctx context.Context, root, prefix string, uniqueAcrossTree bool, opts Options) (Stats, error) {
	w, err := walker.NewWalker(r.fs, root, append([]string{stagingExclude}, opts.Excludes...))
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	global := newRegistry()

	r.logger.PhaseStart("Renaming files", 0)
	for dir, err := range w.Dirs() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err != nil {
			r.logger.Error("walk", dir.Path, err)
			continue
		}
		if len(dir.Files) == 0 {
			continue
		}

		reg := global
		if !uniqueAcrossTree {
			reg = newRegistry()
		}
		if err := r.renameDir(ctx, dir, prefix, reg, opts.DryRun, &stats); err != nil {
			return stats, err
		}
	}
	r.logger.PhaseComplete("Renaming files", stats.Renamed)

	return stats, nil
}

func (r *Renamer) renameDir(ctx context.Context, dir walker.Dir, prefix string, reg *registry, dryRun bool, stats *Stats) error {
	reserved, err := r.keptEntries(dir.Path, dir.Files)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir.Path, err)
	}
	stats.Files += len(dir.Files)

	if dryRun {
		for _, f := range dir.Files {
			stem, ext := NewName(prefix, f)
			r.logger.Move(f.Path, filepath.Join(dir.Path, reg.next(stem, ext, reserved)))
			stats.Renamed++
		}
		return nil
	}

	staging, err := fsutil.StagingDir(ctx, r.fs, dir.Path, StagingPrefix, r.backoff)
	if err != nil {
		return err
	}

	moves := r.stage(dir.Files, staging, prefix, reg, reserved, stats)
	r.unstage(moves, dir.Path, stats)

	return r.removeStaging(ctx, staging)
}

// stage moves files into staging under their generated names. A file that
// cannot be moved stays where it is under its old name.
func (r *Renamer) stage(files []walker.FileInfo, staging, prefix string, reg *registry, reserved map[string]bool, stats *Stats) []move {
	moves := make([]move, 0, len(files))
	for _, f := range files {
		stem, ext := NewName(prefix, f)
		name := reg.next(stem, ext, reserved)
		staged := filepath.Join(staging, name)

		if err := r.fs.Rename(f.Path, staged); err != nil {
			r.logger.Error("stage", f.Path, err)
			stats.Failed++
			continue
		}
		moves = append(moves, move{from: f.Path, staged: staged, name: name})
	}
	return moves
}

func (r *Renamer) unstage(moves []move, dest string, stats *Stats) {
	for _, m := range moves {
		target := filepath.Join(dest, m.name)
		r.logger.Move(m.from, target)
		if err := r.fs.Rename(m.staged, target); err != nil {
			r.logger.Error("move", m.staged, err)
			stats.Failed++
			continue
		}
		stats.Renamed++
	}
}

func (r *Renamer) removeStaging(ctx context.Context, staging string) error {
	err := fsutil.RemoveStaging(ctx, r.fs, staging, r.backoff)
	if errors.Is(err, fsutil.ErrTimeout) {
		// files that failed to move back are still in there
		r.logger.Error("remove staging", staging, err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove staging: %w", err)
	}
	return nil
}
