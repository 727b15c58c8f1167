package planner

import (
	"path/filepath"
	"sort"
)

// Phase3GeneratePlan turns the master listing and the work classification
// into plan items. Every master path that is not already present and
// identical in work is copied; every extra work file is removed.
func Phase3GeneratePlan(master []ItemRef, phase2 Phase2Result, masterBase, workBase string) []Item {
	items := []Item{}

	existing := make(map[string]bool, len(phase2.Existing))
	for _, ref := range phase2.Existing {
		existing[ref.Path] = true
	}

	extra := make(map[string]bool, len(phase2.Extra))
	for _, ref := range phase2.Extra {
		extra[ref.Path] = true
	}

	copied := make(map[string]bool)
	for _, ref := range master {
		if existing[ref.Path] || copied[ref.Path] {
			continue
		}
		copied[ref.Path] = true

		reason := ReasonMissing
		if extra[ref.Path] {
			reason = ReasonContentDiffers
		}
		items = append(items, Item{
			Action:  ActionCopy,
			RelPath: ref.Path,
			Source:  filepath.Join(masterBase, ref.Path),
			Target:  filepath.Join(workBase, ref.Path),
			Size:    ref.Size,
			Reason:  reason,
		})
	}

	for _, ref := range phase2.Existing {
		items = append(items, Item{
			Action:  ActionSkip,
			RelPath: ref.Path,
			Source:  filepath.Join(masterBase, ref.Path),
			Target:  filepath.Join(workBase, ref.Path),
			Size:    ref.Size,
			Reason:  ReasonIdentical,
		})
	}

	for _, ref := range phase2.Extra {
		reason := ReasonNoMatch
		switch {
		case copied[ref.Path]:
			reason = ReasonReplaced
		case phase2.OtherPath[ref.Path] != "":
			reason = ReasonOtherPath
		}
		items = append(items, Item{
			Action:  ActionRemove,
			RelPath: ref.Path,
			Target:  filepath.Join(workBase, ref.Path),
			Size:    ref.Size,
			Reason:  reason,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Action != items[j].Action {
			return items[i].Action < items[j].Action
		}
		return items[i].RelPath < items[j].RelPath
	})

	return items
}

func sortItemRefs(refs []ItemRef) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Path < refs[j].Path
	})
}
