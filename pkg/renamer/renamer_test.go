package renamer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

var fixedTime = time.Date(2021, 3, 4, 5, 6, 7, 0, time.Local)

func stamp(prefix string) string {
	return prefix + fixedTime.Format(TimeLayout)
}

// writeTree creates files relative to root, all with the same mtime.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, fixedTime, fixedTime))
	}
}

// readTree returns every file below root keyed by slash path, and the
// set of directories.
func readTree(t *testing.T, root string) (map[string]string, []string) {
	t.Helper()
	files := map[string]string{}
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, filepath.ToSlash(rel))
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(dirs)
	return files, dirs
}

func newRenamer() (*Renamer, billy.Filesystem) {
	fs := fsutil.NewOS()
	r := NewRenamer(fs, &logger.NullLogger{}).WithBackoff(fsutil.Backoff{
		Attempts: 3,
		Initial:  time.Millisecond,
		Max:      time.Millisecond,
	})
	return r, fs
}

func TestRenamePerDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.jpg":     "1",
		"b.jpg":     "2",
		"c.png":     "3",
		"sub/d.jpg": "4",
	})

	r, _ := newRenamer()
	stats, err := r.Rename(context.Background(), root, "img_", false, Options{})
	require.NoError(t, err)

	s := stamp("img_")
	files, dirs := readTree(t, root)
	want := map[string]string{
		s + ".jpg":          "1",
		s + "(1).jpg":       "2",
		s + ".png":          "3",
		"sub/" + s + ".jpg": "4",
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"sub"}, dirs)
	assert.Equal(t, Stats{Files: 4, Renamed: 4}, stats)
}

func TestRenameUniqueAcrossTree(t *testing.T) {
	root := t.TempDir()
	input := map[string]string{}
	for _, rel := range []string{"a.txt", "b.txt", "x/c.txt", "x/d.txt", "x/y/e.txt", "z/f.txt"} {
		input[rel] = rel
	}
	writeTree(t, root, input)

	r, _ := newRenamer()
	stats, err := r.Rename(context.Background(), root, "", true, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Renamed)

	files, _ := readTree(t, root)
	require.Len(t, files, 6)

	seen := map[string]bool{}
	for rel := range files {
		name := filepath.Base(rel)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}

	// contents survive the rename
	var contents []string
	for _, c := range files {
		contents = append(contents, c)
	}
	sort.Strings(contents)
	assert.Equal(t, []string{"a.txt", "b.txt", "x/c.txt", "x/d.txt", "x/y/e.txt", "z/f.txt"}, contents)
}

func TestRenameAvoidsSubdirectoryNames(t *testing.T) {
	root := t.TempDir()
	s := stamp("")
	writeTree(t, root, map[string]string{
		"photo":       "file",
		s + "/nested": "nested",
	})

	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), root, "", false, Options{})
	require.NoError(t, err)

	files, _ := readTree(t, root)
	assert.Equal(t, "file", files[s+"(1)"])
	assert.Equal(t, "nested", files[s+"/"+s])
}

func TestRenameDryRun(t *testing.T) {
	root := t.TempDir()
	input := map[string]string{"a.txt": "1", "b.txt": "2"}
	writeTree(t, root, input)

	r, _ := newRenamer()
	stats, err := r.Rename(context.Background(), root, "p_", false, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Renamed)

	files, dirs := readTree(t, root)
	assert.Equal(t, input, files)
	assert.Empty(t, dirs)
}

func TestRenameRespectsExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":      "1",
		"keep.md":    "2",
		"skip/b.txt": "3",
	})

	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), root, "", false, Options{Excludes: []string{"*.md", "skip/"}})
	require.NoError(t, err)

	files, _ := readTree(t, root)
	assert.Equal(t, map[string]string{
		stamp("") + ".txt": "1",
		"keep.md":          "2",
		"skip/b.txt":       "3",
	}, files)
}

func TestFlattenToRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.jpg":         "1",
		"x/b.jpg":       "2",
		"x/y/c.jpg":     "3",
		"z/d.mov":       "4",
		"ignored/e.tmp": "5",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "deeper"), 0o755))

	r, _ := newRenamer()
	stats, err := r.FlattenToRoot(context.Background(), root, "v_", Options{Excludes: []string{"**/*.tmp"}})
	require.NoError(t, err)

	s := stamp("v_")
	files, dirs := readTree(t, root)
	want := map[string]string{
		s + ".jpg":      "1",
		s + "(1).jpg":   "2",
		s + "(2).jpg":   "3",
		s + ".mov":      "4",
		"ignored/e.tmp": "5",
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"ignored"}, dirs)
	assert.Equal(t, Stats{Files: 4, Renamed: 4, PrunedDirs: 3}, stats)
}

func TestFlattenToRootDryRun(t *testing.T) {
	root := t.TempDir()
	input := map[string]string{"a.jpg": "1", "x/b.jpg": "2"}
	writeTree(t, root, input)

	r, _ := newRenamer()
	stats, err := r.FlattenToRoot(context.Background(), root, "", Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Renamed)

	files, dirs := readTree(t, root)
	assert.Equal(t, input, files)
	assert.Equal(t, []string{"x"}, dirs)
}

func TestRenameRejectsMissingRoot(t *testing.T) {
	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), filepath.Join(t.TempDir(), "nope"), "", false, Options{})
	assert.Error(t, err)
}

func TestRegistryNext(t *testing.T) {
	reg := newRegistry()
	reserved := reservedSet([]string{"A.JPG"})

	got := []string{
		reg.next("a", ".jpg", reserved),
		reg.next("a", ".jpg", reserved),
		reg.next("a", ".png", reserved),
		reg.next("b", "", reserved),
		reg.next("b", "", reserved),
	}
	assert.Equal(t, []string{"a(1).jpg", "a(2).jpg", "a.png", "b", "b(1)"}, got)
}

func TestRenameKeepsExcludedFiles(t *testing.T) {
	root := t.TempDir()
	s := stamp("")
	writeTree(t, root, map[string]string{
		"a.jpg":             "renamed",
		s + ".jpg":          "excluded",
		"sub/b.jpg":         "nested",
		"sub/" + s + ".jpg": "excluded nested",
	})

	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), root, "", false, Options{Excludes: []string{"**/2021-*"}})
	require.NoError(t, err)

	files, _ := readTree(t, root)
	want := map[string]string{
		s + ".jpg":             "excluded",
		s + "(1).jpg":          "renamed",
		"sub/" + s + ".jpg":    "excluded nested",
		"sub/" + s + "(1).jpg": "nested",
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRenameKeepsSymlinks(t *testing.T) {
	root := t.TempDir()
	s := stamp("")
	writeTree(t, root, map[string]string{"a.jpg": "renamed"})

	target := filepath.Join(t.TempDir(), "target.jpg")
	require.NoError(t, os.WriteFile(target, []byte("target"), 0o644))
	link := filepath.Join(root, s+".jpg")
	require.NoError(t, os.Symlink(target, link))

	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), root, "", false, Options{})
	require.NoError(t, err)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	data, err := os.ReadFile(filepath.Join(root, s+"(1).jpg"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", string(data))

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "target", string(data))
}

func TestRenameDotfileHasNoExtension(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".bashrc":     "rc",
		".config.yml": "yml",
	})

	r, _ := newRenamer()
	_, err := r.Rename(context.Background(), root, "", false, Options{})
	require.NoError(t, err)

	files, _ := readTree(t, root)
	s := stamp("")
	assert.Equal(t, map[string]string{s: "rc", s + ".yml": "yml"}, files)
}
