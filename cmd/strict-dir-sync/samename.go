package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-dir-sync/pkg/samename"
)

func (a *app) newDedupeByNameCmd() *cobra.Command {
	var removeExts []string
	cmd := &cobra.Command{
		Use:   "dedupe-by-name <dir> <recursive>",
		Short: "Remove files sharing a base name, chosen by extension",
		Long: `dedupe-by-name looks for files in one directory that share a base name
but differ in extension, e.g. IMG_1.JPG and IMG_1.RAW. For every distinct
set of extensions you decide once which extensions to remove, either with
--remove-ext or by answering prompts. A group is never removed entirely.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			recursive, err := parseBoolArg("recursive", args[1])
			if err != nil {
				return err
			}

			initialCount, initialSize, err := a.analyze(root, recursive)
			if err != nil {
				return err
			}

			c := samename.NewCleaner(a.fs, a.logger())
			groups, err := c.Scan(root, recursive, a.cfg.Excludes)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(a.stdout, "Nothing to do.")
				return nil
			}

			keys := samename.Keys(groups)
			var table samename.DecisionTable
			if cmd.Flags().Changed("remove-ext") {
				table = samename.TableFor(keys, removeExts)
			} else {
				table, err = askDecisions(a.stdin, a.stdout, keys)
				if err != nil {
					return err
				}
			}

			stats := c.Apply(groups, table, a.cfg.DryRun)

			if p := a.printer(); p != nil {
				leftCount, leftSize := initialCount-stats.Removed, initialSize-stats.RemovedSize
				if !a.cfg.DryRun {
					leftCount, leftSize, err = a.analyze(root, recursive)
					if err != nil {
						return err
					}
				}
				p.Cleaner(initialCount, initialSize, leftCount, leftSize)
			}
			return failures(stats.Failed)
		},
	}
	cmd.Flags().StringSliceVar(&removeExts, "remove-ext", nil, "Extension to remove from every group (multiple allowed); skips prompting")
	return cmd
}

// askDecisions asks once per extension set which extensions to remove.
func askDecisions(r io.Reader, w io.Writer, keys []string) (samename.DecisionTable, error) {
	scanner := bufio.NewScanner(r)
	table := make(samename.DecisionTable, len(keys))

	for _, key := range keys {
		exts := samename.Extensions(key)
		fmt.Fprintf(w, "Detected same filename with extensions: %s\n", strings.Join(exts, ", "))

		decision := make(map[string]bool, len(exts))
		for _, ext := range exts {
			yes, err := askBool(scanner, w, fmt.Sprintf("Remove %s files? [y/n] ", ext))
			if err != nil {
				return nil, err
			}
			decision[ext] = yes
		}
		table[key] = decision
	}
	return table, nil
}

func askBool(scanner *bufio.Scanner, w io.Writer, question string) (bool, error) {
	for {
		fmt.Fprint(w, question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, err
			}
			return false, io.ErrUnexpectedEOF
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
