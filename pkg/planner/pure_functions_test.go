package planner

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"
)

func TestPhase3GeneratePlan(t *testing.T) {
	tests := []struct {
		name   string
		master []ItemRef
		phase2 Phase2Result
		want   []Item
	}{
		{
			name: "empty work tree copies everything",
			master: []ItemRef{
				{Path: "file1.txt", Size: 100},
				{Path: "file2.txt", Size: 200},
			},
			phase2: Phase2Result{},
			want: []Item{
				{Action: ActionCopy, RelPath: "file1.txt", Source: "/master/file1.txt", Target: "/work/file1.txt", Size: 100, Reason: ReasonMissing},
				{Action: ActionCopy, RelPath: "file2.txt", Source: "/master/file2.txt", Target: "/work/file2.txt", Size: 200, Reason: ReasonMissing},
			},
		},
		{
			name:   "identical trees only skip",
			master: []ItemRef{{Path: "same.txt", Size: 10}},
			phase2: Phase2Result{
				Existing: []ItemRef{{Path: "same.txt", Size: 10}},
			},
			want: []Item{
				{Action: ActionSkip, RelPath: "same.txt", Source: "/master/same.txt", Target: "/work/same.txt", Size: 10, Reason: ReasonIdentical},
			},
		},
		{
			name:   "same path different content is replaced",
			master: []ItemRef{{Path: "a", Size: 1}},
			phase2: Phase2Result{
				Extra: []ItemRef{{Path: "a", Size: 1}, {Path: "b", Size: 1}},
			},
			want: []Item{
				{Action: ActionCopy, RelPath: "a", Source: "/master/a", Target: "/work/a", Size: 1, Reason: ReasonContentDiffers},
				{Action: ActionRemove, RelPath: "a", Target: "/work/a", Size: 1, Reason: ReasonReplaced},
				{Action: ActionRemove, RelPath: "b", Target: "/work/b", Size: 1, Reason: ReasonNoMatch},
			},
		},
		{
			name:   "content in the wrong place",
			master: []ItemRef{{Path: "photos/x.jpg", Size: 5}},
			phase2: Phase2Result{
				Extra:     []ItemRef{{Path: "old/x.jpg", Size: 5}},
				OtherPath: map[string]string{"old/x.jpg": "photos/x.jpg"},
			},
			want: []Item{
				{Action: ActionCopy, RelPath: "photos/x.jpg", Source: "/master/photos/x.jpg", Target: "/work/photos/x.jpg", Size: 5, Reason: ReasonMissing},
				{Action: ActionRemove, RelPath: "old/x.jpg", Target: "/work/old/x.jpg", Size: 5, Reason: ReasonOtherPath},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Phase3GeneratePlan(tt.master, tt.phase2, "/master", "/work")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Phase3GeneratePlan() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlanSummary(t *testing.T) {
	plan := &Plan{
		TotalCount: 3,
		TotalSize:  30,
		Items: []Item{
			{Action: ActionCopy, RelPath: "a", Size: 10},
			{Action: ActionRemove, RelPath: "a", Size: 7, Reason: ReasonReplaced},
			{Action: ActionRemove, RelPath: "b", Size: 4, Reason: ReasonNoMatch},
			{Action: ActionSkip, RelPath: "c", Size: 20},
		},
	}

	want := Summary{
		Total: 3, TotalSize: 30,
		Skip: 1, SkipSize: 20,
		Copy: 1, CopySize: 10,
		Remove: 1, RemoveSize: 4,
		Replace: 1, ReplaceSize: 7,
	}
	if got := plan.Summary(); got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}

	if got := plan.Filter(ActionRemove); len(got) != 2 {
		t.Errorf("Filter(remove) returned %d items, want 2", len(got))
	}
}

func TestPlanJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(&Plan{TotalCount: 1, TotalSize: 2})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	var keys []string
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := []string{"Items", "MasterRoot", "TotalCount", "TotalSize", "WorkRoot"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}
