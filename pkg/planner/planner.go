package planner

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

// DirPlanner reconciles a work directory against a master directory on
// the same filesystem.
type DirPlanner struct {
	fs     billy.Filesystem
	engine *fingerprint.Engine
	logger logger.Logger
}

func NewDirPlanner(fs billy.Filesystem, engine *fingerprint.Engine, logger logger.Logger) *DirPlanner {
	return &DirPlanner{
		fs:     fs,
		engine: engine,
		logger: logger,
	}
}

func (p *DirPlanner) Plan(ctx context.Context, masterRoot, workRoot string, opts Options) (*Plan, error) {
	master, err := walker.NewWalker(p.fs, masterRoot, opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("master: %w", err)
	}
	work, err := walker.NewWalker(p.fs, workRoot, opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("work: %w", err)
	}
	if err := fsutil.CheckOverlap(master.Root(), work.Root()); err != nil {
		return nil, err
	}

	idx, masterRefs := p.Phase1IndexMaster(master)

	phase2, err := p.Phase2ClassifyWork(ctx, work, idx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		MasterRoot: master.Root(),
		WorkRoot:   work.Root(),
		Items:      Phase3GeneratePlan(masterRefs, phase2, master.Root(), work.Root()),
	}
	for _, ref := range masterRefs {
		plan.TotalCount++
		plan.TotalSize += ref.Size
	}
	return plan, nil
}

// Phase1IndexMaster indexes every readable master file. Duplicates inside
// master are all kept so a work file matching any copy is recognised.
func (p *DirPlanner) Phase1IndexMaster(master *walker.Walker) (*index.Index, []ItemRef) {
	p.logger.PhaseStart("Reading master dir", 0)

	idx := index.New(p.engine, p.logger)
	idx.Seed(master.Files())

	entries := idx.Entries()
	refs := make([]ItemRef, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, ItemRef{Path: e.RelPath, Size: e.Size})
	}

	p.logger.PhaseComplete("Reading master dir", len(refs))
	return idx, refs
}

// Phase2ClassifyWork classifies each work file against the master index
// without growing it. Unreadable work files are logged and left alone.
func (p *DirPlanner) Phase2ClassifyWork(ctx context.Context, work *walker.Walker, idx *index.Index) (Phase2Result, error) {
	p.logger.PhaseStart("Checking differences", 0)

	result := Phase2Result{
		Existing:  []ItemRef{},
		Extra:     []ItemRef{},
		OtherPath: make(map[string]string),
	}
	policy := index.Policy{MatchAll: true}
	processed := 0

	for f, err := range work.Files() {
		if cerr := ctx.Err(); cerr != nil {
			return Phase2Result{}, cerr
		}
		if err != nil {
			p.logger.Error("walk", f.Path, err)
			continue
		}

		res, err := idx.Classify(f, policy)
		if err != nil {
			p.logger.Error("fingerprint", f.Path, err)
			continue
		}
		processed++

		if res.Kind == index.KindNew {
			result.Extra = append(result.Extra, ItemRef{Path: f.RelPath, Size: f.Size})
			continue
		}

		var samePath *walker.FileInfo
		for i := range res.Matches {
			if res.Matches[i].RelPath == f.RelPath {
				samePath = &res.Matches[i]
				break
			}
		}
		if samePath != nil {
			result.Existing = append(result.Existing, ItemRef{Path: samePath.RelPath, Size: samePath.Size})
			continue
		}

		result.Extra = append(result.Extra, ItemRef{Path: f.RelPath, Size: f.Size})
		result.OtherPath[f.RelPath] = res.Matches[0].RelPath
	}

	sortItemRefs(result.Existing)
	sortItemRefs(result.Extra)

	p.logger.PhaseComplete("Checking differences", processed)
	return result, nil
}
