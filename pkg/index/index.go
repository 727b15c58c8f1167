// Package index holds the in-memory classification index: fingerprint
// buckets of files already accepted during one operation.
package index

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/fingerprint"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

// ErrComparison marks an exact comparison that could not be completed,
// typically because a bucket member vanished after it was indexed.
var ErrComparison = errors.New("comparison failed")

type Kind int

const (
	KindNew Kind = iota
	KindDuplicate
)

func (k Kind) String() string {
	if k == KindDuplicate {
		return "duplicate"
	}
	return "new"
}

// Policy selects how a classification grows the index and how many
// candidates are compared.
type Policy struct {
	CollectOnNew       bool
	CollectOnDuplicate bool
	// MatchAll compares every bucket member instead of stopping at the first match.
	MatchAll bool
}

// Result of classifying one file.
type Result struct {
	Kind        Kind
	Fingerprint fingerprint.Fingerprint
	Matches     []walker.FileInfo
}

// Index maps fingerprints to the files accepted under them. Bucket members
// share a fingerprint but are not necessarily equal in content.
type Index struct {
	engine  *fingerprint.Engine
	logger  logger.Logger
	buckets map[fingerprint.Fingerprint][]walker.FileInfo
	size    int
}

// New returns an empty index.
func New(engine *fingerprint.Engine, logger logger.Logger) *Index {
	return &Index{
		engine:  engine,
		logger:  logger,
		buckets: make(map[fingerprint.Fingerprint][]walker.FileInfo),
	}
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return idx.size
}

// Add fingerprints entry and appends it to its bucket without comparing.
func (idx *Index) Add(entry walker.FileInfo) (fingerprint.Fingerprint, error) {
	fp, err := idx.engine.Fingerprint(entry.Path)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	idx.insert(fp, entry)
	return fp, nil
}

// Seed adds every file of a walk. Files that cannot be read are logged and skipped.
func (idx *Index) Seed(files iter.Seq2[walker.FileInfo, error]) int {
	added := 0
	for f, err := range files {
		if err != nil {
			idx.logger.Error("walk", f.Path, err)
			continue
		}
		if _, err := idx.Add(f); err != nil {
			idx.logger.Error("fingerprint", f.Path, err)
			continue
		}
		added++
	}
	return added
}

// Classify decides whether entry duplicates an indexed file. A fingerprint
// hit is only a candidate; a duplicate requires an exact content match.
// The returned error concerns entry itself; failures to read a candidate
// are logged and count as a mismatch.
func (idx *Index) Classify(entry walker.FileInfo, policy Policy) (Result, error) {
	fp, err := idx.engine.Fingerprint(entry.Path)
	if err != nil {
		return Result{}, err
	}

	result := Result{Kind: KindNew, Fingerprint: fp}

	for _, candidate := range idx.buckets[fp] {
		if candidate.Path == entry.Path {
			continue
		}
		equal, err := idx.engine.Equal(entry.Path, candidate.Path)
		if err != nil {
			idx.logger.Error("compare", candidate.Path, fmt.Errorf("%w: %w", ErrComparison, err))
			continue
		}
		if !equal {
			continue
		}
		result.Kind = KindDuplicate
		result.Matches = append(result.Matches, candidate)
		if !policy.MatchAll {
			break
		}
	}

	if (result.Kind == KindNew && policy.CollectOnNew) || (result.Kind == KindDuplicate && policy.CollectOnDuplicate) {
		idx.insert(fp, entry)
	}

	idx.logger.Debug("classified", "path", entry.Path, "kind", result.Kind.String(), "fingerprint", fp.String())
	return result, nil
}

// Entries returns every indexed file ordered by relative path.
func (idx *Index) Entries() []walker.FileInfo {
	entries := make([]walker.FileInfo, 0, idx.size)
	for _, bucket := range idx.buckets {
		entries = append(entries, bucket...)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
	return entries
}

func (idx *Index) insert(fp fingerprint.Fingerprint, entry walker.FileInfo) {
	idx.buckets[fp] = append(idx.buckets[fp], entry)
	idx.size++
}
