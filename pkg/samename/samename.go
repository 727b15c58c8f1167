package samename

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

// ErrWouldRemoveAll is reported for a group whose decision removes every
// extension. Such a group is left untouched.
var ErrWouldRemoveAll = errors.New("decision removes every file of the group")

// Group is a set of files in one directory sharing a base name.
type Group struct {
	Dir   string
	Name  string
	Files []walker.FileInfo // sorted by extension
}

// Key identifies the extension set of the group, e.g. "JPG,RAW".
func (g Group) Key() string {
	exts := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		exts = append(exts, ext(f))
	}
	return Key(exts)
}

// Key builds the case-insensitive key of an extension set. Extensions
// differing only in case appear once.
func Key(exts []string) string {
	seen := make(map[string]bool, len(exts))
	upper := make([]string, 0, len(exts))
	for _, e := range exts {
		n := normalizeExt(e)
		if seen[n] {
			continue
		}
		seen[n] = true
		upper = append(upper, n)
	}
	sort.Strings(upper)
	return strings.Join(upper, ",")
}

// Extensions splits a key back into its extensions.
func Extensions(key string) []string {
	return strings.Split(key, ",")
}

func normalizeExt(e string) string {
	return strings.ToUpper(strings.TrimPrefix(e, "."))
}

func ext(f walker.FileInfo) string {
	return normalizeExt(fsutil.Ext(f.Path))
}

// DecisionTable maps a group key to the extensions to remove in groups
// with that key. A key missing from the table leaves those groups alone.
type DecisionTable map[string]map[string]bool

// Remove reports whether files with extension e are removed in groups
// keyed by key.
func (t DecisionTable) Remove(key, e string) bool {
	return t[key][normalizeExt(e)]
}

// TableFor builds a table that removes the given extensions in every
// group key where they appear.
func TableFor(keys []string, remove []string) DecisionTable {
	rm := make(map[string]bool, len(remove))
	for _, e := range remove {
		rm[normalizeExt(e)] = true
	}

	table := make(DecisionTable, len(keys))
	for _, key := range keys {
		decision := make(map[string]bool)
		for _, e := range Extensions(key) {
			decision[e] = rm[e]
		}
		table[key] = decision
	}
	return table
}

type Stats struct {
	Groups      int
	Removed     int
	RemovedSize int64
	Skipped     int
	Failed      int
}

type Cleaner struct {
	fs     billy.Filesystem
	logger logger.Logger
}

func NewCleaner(fs billy.Filesystem, logger logger.Logger) *Cleaner {
	return &Cleaner{fs: fs, logger: logger}
}

// Scan finds groups of files sharing a base name within a directory.
// Files without a base name or without an extension are ignored. Only
// root is scanned unless recursive is set.
func (c *Cleaner) Scan(root string, recursive bool, excludes []string) ([]Group, error) {
	w, err := walker.NewWalker(c.fs, root, excludes)
	if err != nil {
		return nil, err
	}

	var groups []Group
	for dir, err := range w.Dirs() {
		if err != nil {
			c.logger.Error("walk", dir.Path, err)
		} else {
			groups = append(groups, groupDir(dir)...)
		}
		if !recursive {
			break
		}
	}
	return groups, nil
}

func groupDir(dir walker.Dir) []Group {
	byName := make(map[string][]walker.FileInfo)
	var names []string

	for _, f := range dir.Files {
		base := filepath.Base(f.Path)
		e := fsutil.Ext(base)
		name := strings.TrimSuffix(base, e)
		if name == "" || e == "" {
			continue
		}
		if _, ok := byName[name]; !ok {
			names = append(names, name)
		}
		byName[name] = append(byName[name], f)
	}

	sort.Strings(names)
	var groups []Group
	for _, name := range names {
		files := byName[name]
		if len(files) < 2 {
			continue
		}
		sort.Slice(files, func(i, j int) bool {
			return fsutil.Ext(files[i].Path) < fsutil.Ext(files[j].Path)
		})
		groups = append(groups, Group{Dir: dir.Path, Name: name, Files: files})
	}
	return groups
}

// Keys returns the distinct group keys in sorted order.
func Keys(groups []Group) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, g := range groups {
		key := g.Key()
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Apply removes the files the table selects. A group where every file
// would be removed is skipped and reported.
func (c *Cleaner) Apply(groups []Group, table DecisionTable, dryRun bool) Stats {
	stats := Stats{Groups: len(groups)}

	c.logger.PhaseStart("Removing same-name files", len(groups))
	for _, g := range groups {
		key := g.Key()

		var victims []walker.FileInfo
		for _, f := range g.Files {
			if table.Remove(key, ext(f)) {
				victims = append(victims, f)
			}
		}
		if len(victims) == 0 {
			continue
		}
		if len(victims) == len(g.Files) {
			c.logger.Error("remove", filepath.Join(g.Dir, g.Name), ErrWouldRemoveAll)
			stats.Skipped++
			continue
		}

		for _, f := range victims {
			c.logger.Remove(f.Path)
			if !dryRun {
				if err := c.fs.Remove(f.Path); err != nil {
					c.logger.Error("remove", f.Path, err)
					stats.Failed++
					continue
				}
			}
			stats.Removed++
			stats.RemovedSize += f.Size
		}
	}
	c.logger.PhaseComplete("Removing same-name files", stats.Removed)

	return stats
}
