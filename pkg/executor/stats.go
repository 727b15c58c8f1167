package executor

import (
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

// Stats tracks what a sync actually did
type Stats struct {
	Total        int   `json:"total"`
	TotalSize    int64 `json:"total_size"`
	Skipped      int   `json:"skipped"`
	SkippedSize  int64 `json:"skipped_size"`
	Removed      int   `json:"removed"`
	RemovedSize  int64 `json:"removed_size"`
	Replaced     int   `json:"replaced"`
	ReplacedSize int64 `json:"replaced_size"`
	Copied       int   `json:"copied"`
	CopiedSize   int64 `json:"copied_size"`
	Failed       int   `json:"failed"`
}

// UpdateStats updates statistics from results. Sizes come from the plan,
// which was read from the filesystem before anything was changed.
func UpdateStats(stats *Stats, results []Result) {
	for _, result := range results {
		if result.Error != nil {
			stats.Failed++
			continue
		}

		item := result.Item
		switch {
		case item.Action == planner.ActionSkip:
			stats.Skipped++
			stats.SkippedSize += item.Size
		case item.Action == planner.ActionCopy:
			stats.Copied++
			stats.CopiedSize += item.Size
		case item.Action == planner.ActionRemove && item.Reason == planner.ReasonReplaced:
			stats.Replaced++
			stats.ReplacedSize += item.Size
		case item.Action == planner.ActionRemove:
			stats.Removed++
			stats.RemovedSize += item.Size
		}
	}
}

// NewStats summarises the results of executing plan.
func NewStats(plan *planner.Plan, results []Result) Stats {
	stats := Stats{
		Total:     plan.TotalCount,
		TotalSize: plan.TotalSize,
	}
	UpdateStats(&stats, results)
	return stats
}
