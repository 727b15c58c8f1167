package main

import (
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-dir-sync/pkg/renamer"
)

func (a *app) newFlattenRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten-rename <dir> <prefix> <uniqueAcrossTree>",
		Short: "Rename files in place to names derived from their modification time",
		Long: `flatten-rename renames every file to <prefix>_YYYY-MM-DD_HH_MM_SS<ext>,
adding (n) to repeated names. Names are unique per directory, or across the
whole tree when uniqueAcrossTree is true. An empty prefix drops the
leading "<prefix>_".`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			unique, err := parseBoolArg("uniqueAcrossTree", args[2])
			if err != nil {
				return err
			}

			r := renamer.NewRenamer(a.fs, a.logger())
			stats, err := r.Rename(contextOf(cmd), args[0], namePrefix(args[1]), unique, renamer.Options{
				Excludes: a.cfg.Excludes,
				DryRun:   a.cfg.DryRun,
			})
			if err != nil {
				return err
			}
			return failures(stats.Failed)
		},
	}
}

func (a *app) newFlattenToRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten-to-root <dir> <prefix>",
		Short: "Collapse a tree into uniquely named files directly under its root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			initialCount, initialSize, err := a.analyze(root, true)
			if err != nil {
				return err
			}

			r := renamer.NewRenamer(a.fs, a.logger())
			stats, err := r.FlattenToRoot(contextOf(cmd), root, namePrefix(args[1]), renamer.Options{
				Excludes: a.cfg.Excludes,
				DryRun:   a.cfg.DryRun,
			})
			if err != nil {
				return err
			}

			a.printCleaner(root, initialCount, initialSize, initialCount, initialSize)
			return failures(stats.Failed)
		},
	}
}
