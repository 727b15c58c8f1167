package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5"
	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/strict-dir-sync/internal/config"
	"github.com/yuya-takeyama/strict-dir-sync/internal/fsutil"
	"github.com/yuya-takeyama/strict-dir-sync/internal/report"
	"github.com/yuya-takeyama/strict-dir-sync/internal/walker"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/fingerprint"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(fsutil.NewOS(), os.Stdin, os.Stdout, os.Stderr, os.LookupEnv)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs
type app struct {
	cfg     config.Config
	fs      billy.Filesystem
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	colored bool
	envErr  error
}

func newRootCmd(fs billy.Filesystem, stdin io.Reader, stdout, stderr io.Writer, lookup config.LookupFunc) *cobra.Command {
	a := &app{
		fs:      fs,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		colored: stdout == os.Stdout && !color.NoColor,
	}
	a.cfg, a.envErr = config.FromEnv(lookup)
	if a.envErr != nil {
		a.cfg = config.Default()
	}

	rootCmd := &cobra.Command{
		Use:   "strict-dir-sync",
		Short: "Content-based directory deduplication and one-way sync",
		Long: `strict-dir-sync finds duplicate files by sampled content fingerprints,
confirmed byte for byte, and uses them to clean trees, flatten them into
timestamp-named files and mirror a master directory into a work directory.`,
		Version:      fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.envErr != nil {
				return a.envErr
			}
			return a.cfg.Validate()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	a.cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		a.newDedupeCmd(),
		a.newDedupeAgainstCmd(),
		a.newFlattenRenameCmd(),
		a.newFlattenToRootCmd(),
		a.newSyncCmd(),
		a.newDedupeByNameCmd(),
		a.newAnalyzeCmd(),
	)
	return rootCmd
}

func (a *app) logger() *logger.SyncLogger {
	return logger.New(a.stderr, a.cfg.DryRun, a.cfg.Quiet, a.cfg.Verbose)
}

func (a *app) engine() (*fingerprint.Engine, error) {
	return fingerprint.NewEngine(a.fs, a.cfg.ChunkSize, a.cfg.MaxChunks, a.cfg.Digest)
}

// printer returns nil when tables are suppressed
func (a *app) printer() *report.Printer {
	if a.cfg.Quiet {
		return nil
	}
	return report.NewPrinter(a.stdout, a.colored)
}

func (a *app) analyze(root string, recursive bool) (int, int64, error) {
	w, err := walker.NewWalker(a.fs, root, a.cfg.Excludes)
	if err != nil {
		return 0, 0, err
	}
	return w.Analyze(recursive)
}

// printCleaner prints before/after statistics of a tree. In dry run mode
// the tree is unchanged, so the expected result is used instead.
func (a *app) printCleaner(root string, initialCount int, initialSize int64, expectedCount int, expectedSize int64) {
	p := a.printer()
	if p == nil {
		return
	}
	leftCount, leftSize := expectedCount, expectedSize
	if !a.cfg.DryRun {
		var err error
		leftCount, leftSize, err = a.analyze(root, true)
		if err != nil {
			fmt.Fprintf(a.stderr, "analyze %s: %v\n", root, err)
			return
		}
	}
	p.Cleaner(initialCount, initialSize, leftCount, leftSize)
}

func failures(n int) error {
	if n > 0 {
		return fmt.Errorf("%d operations failed", n)
	}
	return nil
}

// namePrefix separates a non-empty user prefix from the timestamp.
func namePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return prefix + "_"
}

func parseBoolArg(name, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, value)
	}
	return b, nil
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Count files and total size of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, size, err := a.analyze(args[0], recursive)
			if err != nil {
				return err
			}
			report.NewPrinter(a.stdout, a.colored).Analyze(args[0], count, size)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "Include subdirectories")
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
