package planner

import (
	"context"
)

type Planner interface {
	Plan(ctx context.Context, masterRoot, workRoot string, opts Options) (*Plan, error)
}

type Options struct {
	Excludes []string
}

type Action string

const (
	ActionCopy   Action = "copy"
	ActionRemove Action = "remove"
	ActionSkip   Action = "skip"
)

const (
	ReasonMissing        = "missing in work"
	ReasonContentDiffers = "content differs"
	ReasonNoMatch        = "no content match in master"
	ReasonOtherPath      = "content exists in master at another path"
	ReasonReplaced       = "replaced by master copy"
	ReasonIdentical      = "identical"
)

type Item struct {
	Action  Action
	RelPath string
	Source  string // master path, empty for removals
	Target  string // work path
	Size    int64
	Reason  string
}

// Plan is the reconciliation of one work tree against its master.
type Plan struct {
	MasterRoot string
	WorkRoot   string
	Items      []Item
	TotalCount int
	TotalSize  int64
}

// Summary aggregates a plan. Removals of paths that are copied again are
// counted as replacements, not as removals.
type Summary struct {
	Total       int   `json:"total"`
	TotalSize   int64 `json:"total_size"`
	Skip        int   `json:"skip"`
	SkipSize    int64 `json:"skip_size"`
	Copy        int   `json:"copy"`
	CopySize    int64 `json:"copy_size"`
	Remove      int   `json:"remove"`
	RemoveSize  int64 `json:"remove_size"`
	Replace     int   `json:"replace"`
	ReplaceSize int64 `json:"replace_size"`
}

// Filter returns the items with the given action, in plan order.
func (p *Plan) Filter(action Action) []Item {
	var out []Item
	for _, item := range p.Items {
		if item.Action == action {
			out = append(out, item)
		}
	}
	return out
}

func (p *Plan) Summary() Summary {
	s := Summary{Total: p.TotalCount, TotalSize: p.TotalSize}
	for _, item := range p.Items {
		switch {
		case item.Action == ActionSkip:
			s.Skip++
			s.SkipSize += item.Size
		case item.Action == ActionCopy:
			s.Copy++
			s.CopySize += item.Size
		case item.Action == ActionRemove && item.Reason == ReasonReplaced:
			s.Replace++
			s.ReplaceSize += item.Size
		case item.Action == ActionRemove:
			s.Remove++
			s.RemoveSize += item.Size
		}
	}
	return s
}
