// Package dedupe removes duplicate files inside one tree, or files of one
// tree whose content already exists in another.
package dedupe

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/fingerprint"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/index"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

type Options struct {
	Excludes []string
	DryRun   bool
}

// Stats describes the cleaned tree before and after a run. Only removals
// that succeeded are counted.
type Stats struct {
	InitialCount int
	InitialSize  int64
	RemovedCount int
	RemovedSize  int64
	Failed       int
}

func (s Stats) FinalCount() int {
	return s.InitialCount - s.RemovedCount
}

func (s Stats) FinalSize() int64 {
	return s.InitialSize - s.RemovedSize
}

type Deduper struct {
	fs     billy.Filesystem
	engine *fingerprint.Engine
	logger logger.Logger
}

func NewDeduper(fs billy.Filesystem, engine *fingerprint.Engine, logger logger.Logger) *Deduper {
	return &Deduper{
		fs:     fs,
		engine: engine,
		logger: logger,
	}
}

// Dedupe keeps the first visited copy of every distinct content under root
// and removes the others.
func (d *Deduper) Dedupe(ctx context.Context, root string, opts Options) (Stats, error) {
	w, err := walker.NewWalker(d.fs, root, opts.Excludes)
	if err != nil {
		return Stats{}, err
	}

	idx := index.New(d.engine, d.logger)
	policy := index.Policy{CollectOnNew: true}

	d.logger.PhaseStart("Removing duplicated files", 0)
	stats, err := d.clean(ctx, w, idx, policy, opts)
	d.logger.PhaseComplete("Removing duplicated files", stats.RemovedCount)
	return stats, err
}

// DedupeAgainst removes every file under target whose content exists
// anywhere under source. source is never modified.
func (d *Deduper) DedupeAgainst(ctx context.Context, source, target string, opts Options) (Stats, error) {
	src, err := walker.NewWalker(d.fs, source, opts.Excludes)
	if err != nil {
		return Stats{}, fmt.Errorf("source: %w", err)
	}
	dst, err := walker.NewWalker(d.fs, target, opts.Excludes)
	if err != nil {
		return Stats{}, fmt.Errorf("target: %w", err)
	}
	if err := fsutil.CheckOverlap(src.Root(), dst.Root()); err != nil {
		return Stats{}, err
	}

	idx := index.New(d.engine, d.logger)

	d.logger.PhaseStart("Collecting files from "+src.Root(), 0)
	seeded := idx.Seed(src.Files())
	d.logger.PhaseComplete("Collecting files from "+src.Root(), seeded)

	d.logger.PhaseStart("Removing duplicated files", 0)
	stats, err := d.clean(ctx, dst, idx, index.Policy{}, opts)
	d.logger.PhaseComplete("Removing duplicated files", stats.RemovedCount)
	return stats, err
}

func (d *Deduper) clean(ctx context.Context, w *walker.Walker, idx *index.Index, policy index.Policy, opts Options) (Stats, error) {
	var stats Stats

	for f, err := range w.Files() {
		if cerr := ctx.Err(); cerr != nil {
			return stats, cerr
		}
		if err != nil {
			d.logger.Error("walk", f.Path, err)
			stats.Failed++
			continue
		}

		stats.InitialCount++
		stats.InitialSize += f.Size

		res, err := idx.Classify(f, policy)
		if err != nil {
			d.logger.Error("fingerprint", f.Path, err)
			stats.Failed++
			continue
		}
		if res.Kind != index.KindDuplicate {
			continue
		}

		d.logger.Remove(f.Path)
		if !opts.DryRun {
			if err := d.fs.Remove(f.Path); err != nil {
				d.logger.Error("remove", f.Path, err)
				stats.Failed++
				continue
			}
		}
		stats.RemovedCount++
		stats.RemovedSize += f.Size
	}

	return stats, nil
}
