package executor

import (
	"context"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

type Executor struct {
	fs     billy.Filesystem
	logger logger.Logger
	dryRun bool
}

func NewExecutor(fs billy.Filesystem, logger logger.Logger, dryRun bool) *Executor {
	return &Executor{
		fs:     fs,
		logger: logger,
		dryRun: dryRun,
	}
}

type Result struct {
	Item  planner.Item
	Error error
}

// Execute applies a plan one item at a time: every removal first, then
// empty directory pruning under the work root, then every copy. A failed
// item is logged and recorded; it never stops the run. Nothing is rolled
// back, running the same sync again converges.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan) []Result {
	results := make([]Result, 0, len(plan.Items))

	for _, item := range plan.Filter(planner.ActionSkip) {
		results = append(results, Result{Item: item})
	}

	removals := plan.Filter(planner.ActionRemove)
	e.logger.PhaseStart("Removing extra files", len(removals))
	for _, item := range removals {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Item: item, Error: err})
			continue
		}
		results = append(results, Result{Item: item, Error: e.remove(item)})
	}
	e.logger.PhaseComplete("Removing extra files", len(removals))

	if !e.dryRun {
		e.logger.PhaseStart("Removing empty directories", 0)
		pruned := fsutil.PruneEmptyDirs(e.fs, plan.WorkRoot, func(path string, err error) {
			e.logger.Error("remove dir", path, err)
		})
		e.logger.PhaseComplete("Removing empty directories", len(pruned))
	}

	copies := plan.Filter(planner.ActionCopy)
	e.logger.PhaseStart("Copying new files", len(copies))
	for _, item := range copies {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Item: item, Error: err})
			continue
		}
		results = append(results, Result{Item: item, Error: e.copy(item)})
	}
	e.logger.PhaseComplete("Copying new files", len(copies))

	return results
}

func (e *Executor) remove(item planner.Item) error {
	e.logger.Remove(item.Target)
	if e.dryRun {
		return nil
	}
	if err := e.fs.Remove(item.Target); err != nil {
		e.logger.Error("remove", item.Target, err)
		return err
	}
	return nil
}

func (e *Executor) copy(item planner.Item) error {
	e.logger.Copy(item.Source, item.Target)
	if e.dryRun {
		return nil
	}
	if err := fsutil.CopyFile(e.fs, item.Source, item.Target); err != nil {
		e.logger.Error("copy", item.Source, err)
		return err
	}
	return nil
}
