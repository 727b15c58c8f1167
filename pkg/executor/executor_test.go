package executor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/fingerprint"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

func setup(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := fsutil.NewMemory()
	require.NoError(t, fs.MkdirAll("/master", 0o755))
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func runSync(t *testing.T, fs billy.Filesystem, dryRun bool) (*planner.Plan, Stats) {
	t.Helper()
	engine, err := fingerprint.NewEngine(fs, 4, 2, "")
	require.NoError(t, err)

	p := planner.NewDirPlanner(fs, engine, &logger.NullLogger{})
	plan, err := p.Plan(context.Background(), "/master", "/work", planner.Options{})
	require.NoError(t, err)

	results := NewExecutor(fs, &logger.NullLogger{}, dryRun).Execute(context.Background(), plan)
	return plan, NewStats(plan, results)
}

func listTree(t *testing.T, fs billy.Filesystem, root string) map[string]string {
	t.Helper()
	w, err := walker.NewWalker(fs, root, nil)
	require.NoError(t, err)
	files, err := w.Walk()
	require.NoError(t, err)

	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := util.ReadFile(fs, f.Path)
		require.NoError(t, err)
		out[filepath.ToSlash(f.RelPath)] = string(data)
	}
	return out
}

func TestExecuteRemovalBeforeCopy(t *testing.T) {
	fs := setup(t, map[string]string{
		"/master/a": "X",
		"/work/a":   "Y",
		"/work/b":   "Z",
	})

	_, stats := runSync(t, fs, false)

	assert.Equal(t, map[string]string{"a": "X"}, listTree(t, fs, "/work"))
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Replaced)
	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, int64(1), stats.TotalSize)
}

func TestExecuteConverges(t *testing.T) {
	fs := setup(t, map[string]string{
		"/master/a.txt":       "alpha",
		"/master/sub/b.txt":   "bravo",
		"/master/sub/c.txt":   "alpha",
		"/master/deep/x/y.md": "yankee",
		"/work/a.txt":         "alpha",
		"/work/moved/b.txt":   "bravo",
		"/work/sub/c.txt":     "changed",
		"/work/junk/z.bin":    "zulu",
	})

	_, first := runSync(t, fs, false)
	assert.Equal(t, 0, first.Failed)
	assert.Equal(t, listTree(t, fs, "/master"), listTree(t, fs, "/work"))

	plan, second := runSync(t, fs, false)
	assert.Empty(t, plan.Filter(planner.ActionCopy))
	assert.Empty(t, plan.Filter(planner.ActionRemove))
	assert.Equal(t, 4, second.Skipped)
	assert.Equal(t, 0, second.Copied+second.Removed+second.Replaced)
}

func TestExecutePrunesEmptyDirs(t *testing.T) {
	fs := setup(t, map[string]string{
		"/master/keep/a": "A",
		"/work/keep/a":   "A",
		"/work/old/x/b":  "B",
	})

	_, stats := runSync(t, fs, false)
	assert.Equal(t, 1, stats.Removed)

	_, err := fs.Stat("/work/old")
	assert.Error(t, err)
	_, err = fs.Stat("/work/keep")
	assert.NoError(t, err)
	_, err = fs.Stat("/work")
	assert.NoError(t, err)
}

func TestExecuteDryRun(t *testing.T) {
	files := map[string]string{
		"/master/a": "X",
		"/work/a":   "Y",
		"/work/b":   "Z",
	}
	fs := setup(t, files)

	_, stats := runSync(t, fs, true)

	assert.Equal(t, map[string]string{"a": "Y", "b": "Z"}, listTree(t, fs, "/work"))
	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Replaced)
}

func TestExecuteRecordsFailures(t *testing.T) {
	fs := setup(t, map[string]string{
		"/master/a": "A",
		"/master/b": "B",
	})

	plan := &planner.Plan{
		MasterRoot: "/master",
		WorkRoot:   "/work",
		Items: []planner.Item{
			{Action: planner.ActionCopy, RelPath: "a", Source: "/master/a", Target: "/work/a", Size: 1},
			{Action: planner.ActionCopy, RelPath: "gone", Source: "/master/gone", Target: "/work/gone", Size: 4},
			{Action: planner.ActionRemove, RelPath: "missing", Target: "/work/missing", Size: 2},
		},
		TotalCount: 2,
		TotalSize:  2,
	}

	results := NewExecutor(fs, &logger.NullLogger{}, false).Execute(context.Background(), plan)
	require.Len(t, results, 3)

	stats := NewStats(plan, results)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.Copied)
	assert.Equal(t, int64(1), stats.CopiedSize)

	data, err := util.ReadFile(fs, "/work/a")
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

func TestExecuteCanceled(t *testing.T) {
	fs := setup(t, map[string]string{"/master/a": "A"})
	plan := &planner.Plan{
		MasterRoot: "/master",
		WorkRoot:   "/work",
		Items: []planner.Item{
			{Action: planner.ActionCopy, RelPath: "a", Source: "/master/a", Target: "/work/a", Size: 1},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewExecutor(fs, &logger.NullLogger{}, false).Execute(ctx, plan)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)

	_, err := fs.Stat("/work/a")
	assert.Error(t, err)
}
