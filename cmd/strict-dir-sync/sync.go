package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-dir-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	Files   []PlanFile      `json:"files"`
	Summary planner.Summary `json:"summary"`
}

type PlanFile struct {
	Action string `json:"action"` // "skip", "copy", "remove"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Size   int64  `json:"size"`
	Reason string `json:"reason"`
}

// SyncResult represents the actual execution results
type SyncResult struct {
	Files   []ResultFile   `json:"files"`
	Errors  []ErrorFile    `json:"errors"`
	Summary executor.Stats `json:"summary"`
}

type ResultFile struct {
	Action string `json:"action"` // "skipped", "copied", "removed", "replaced"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

type ErrorFile struct {
	Action string `json:"action"` // "copy", "remove"
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Error  string `json:"error"`
}

func (a *app) newSyncCmd() *cobra.Command {
	var (
		planJSONFile   string
		resultJSONFile string
	)
	cmd := &cobra.Command{
		Use:   "sync <master> <work>",
		Short: "Make work mirror master by content",
		Long: `sync copies every master file that work lacks, removes every work file
that has no identical counterpart at the same path in master, and prunes
directories left empty. master is never modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			engine, err := a.engine()
			if err != nil {
				return err
			}
			log := a.logger()

			plnr := planner.NewDirPlanner(a.fs, engine, log)
			plan, err := plnr.Plan(ctx, args[0], args[1], planner.Options{Excludes: a.cfg.Excludes})
			if err != nil {
				return fmt.Errorf("failed to generate plan: %w", err)
			}

			if planJSONFile != "" {
				if err := writeJSON(planJSONFile, newPlanResult(plan)); err != nil {
					return fmt.Errorf("failed to write plan JSON: %w", err)
				}
			}
			if a.cfg.Verbose {
				if p := a.printer(); p != nil {
					p.Plan(plan)
				}
			}

			results := executor.NewExecutor(a.fs, log, a.cfg.DryRun).Execute(ctx, plan)
			stats := executor.NewStats(plan, results)

			if resultJSONFile != "" && !a.cfg.DryRun {
				if err := writeJSON(resultJSONFile, newSyncResult(results, stats)); err != nil {
					return fmt.Errorf("failed to write result JSON: %w", err)
				}
			}

			if p := a.printer(); p != nil {
				p.Sync(stats)
			}
			return failures(stats.Failed)
		},
	}
	cmd.Flags().StringVar(&planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	cmd.Flags().StringVar(&resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	return cmd
}

func newPlanResult(plan *planner.Plan) PlanResult {
	result := PlanResult{
		Files:   []PlanFile{},
		Summary: plan.Summary(),
	}
	for _, item := range plan.Items {
		result.Files = append(result.Files, PlanFile{
			Action: string(item.Action),
			Source: item.Source,
			Target: item.Target,
			Size:   item.Size,
			Reason: item.Reason,
		})
	}
	return result
}

func newSyncResult(results []executor.Result, stats executor.Stats) SyncResult {
	out := SyncResult{
		Files:   []ResultFile{},
		Errors:  []ErrorFile{},
		Summary: stats,
	}
	for _, r := range results {
		item := r.Item
		if r.Error != nil {
			out.Errors = append(out.Errors, ErrorFile{
				Action: string(item.Action),
				Source: item.Source,
				Target: item.Target,
				Error:  r.Error.Error(),
			})
			continue
		}
		out.Files = append(out.Files, ResultFile{
			Action: resultAction(item),
			Source: item.Source,
			Target: item.Target,
		})
	}
	return out
}

func resultAction(item planner.Item) string {
	switch {
	case item.Action == planner.ActionCopy:
		return "copied"
	case item.Action == planner.ActionRemove && item.Reason == planner.ReasonReplaced:
		return "replaced"
	case item.Action == planner.ActionRemove:
		return "removed"
	case item.Action == planner.ActionSkip:
		return "skipped"
	default:
		return "unknown"
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
