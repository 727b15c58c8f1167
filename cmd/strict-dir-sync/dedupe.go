package main

import (
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-dir-sync/pkg/dedupe"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/renamer"
)

type flattenFlag struct {
	prefix string
}

func (f *flattenFlag) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.prefix, "flatten-prefix", "", "Flatten the cleaned tree into its root afterwards, naming files with this prefix")
}

// run flattens root when the flag was given
func (f *flattenFlag) run(cmd *cobra.Command, a *app, root string) (int, error) {
	if !cmd.Flags().Changed("flatten-prefix") {
		return 0, nil
	}
	r := renamer.NewRenamer(a.fs, a.logger())
	stats, err := r.FlattenToRoot(contextOf(cmd), root, namePrefix(f.prefix), renamer.Options{
		Excludes: a.cfg.Excludes,
		DryRun:   a.cfg.DryRun,
	})
	return stats.Failed, err
}

func (a *app) newDedupeCmd() *cobra.Command {
	var flatten flattenFlag
	cmd := &cobra.Command{
		Use:   "dedupe <dir>",
		Short: "Remove files whose content already appears elsewhere in the same tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			engine, err := a.engine()
			if err != nil {
				return err
			}

			d := dedupe.NewDeduper(a.fs, engine, a.logger())
			stats, err := d.Dedupe(contextOf(cmd), root, dedupe.Options{
				Excludes: a.cfg.Excludes,
				DryRun:   a.cfg.DryRun,
			})
			if err != nil {
				return err
			}

			flattenFailed, err := flatten.run(cmd, a, root)
			if err != nil {
				return err
			}

			a.printCleaner(root, stats.InitialCount, stats.InitialSize, stats.FinalCount(), stats.FinalSize())
			return failures(stats.Failed + flattenFailed)
		},
	}
	flatten.bind(cmd)
	return cmd
}

func (a *app) newDedupeAgainstCmd() *cobra.Command {
	var flatten flattenFlag
	cmd := &cobra.Command{
		Use:   "dedupe-against <source> <target>",
		Short: "Remove files from target whose content exists in source",
		Long: `dedupe-against removes every file of target whose content is present
anywhere in source. source is never modified.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, target := args[0], args[1]
			engine, err := a.engine()
			if err != nil {
				return err
			}

			d := dedupe.NewDeduper(a.fs, engine, a.logger())
			stats, err := d.DedupeAgainst(contextOf(cmd), source, target, dedupe.Options{
				Excludes: a.cfg.Excludes,
				DryRun:   a.cfg.DryRun,
			})
			if err != nil {
				return err
			}

			flattenFailed, err := flatten.run(cmd, a, target)
			if err != nil {
				return err
			}

			a.printCleaner(target, stats.InitialCount, stats.InitialSize, stats.FinalCount(), stats.FinalSize())
			return failures(stats.Failed + flattenFailed)
		},
	}
	flatten.bind(cmd)
	return cmd
}
