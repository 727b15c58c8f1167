package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/yuya-takeyama/strict-dir-sync/pkg/executor"
	"github.com/yuya-takeyama/strict-dir-sync/pkg/planner"
)

// Printer writes statistics tables
type Printer struct {
	w      io.Writer
	header *color.Color
	label  *color.Color
	failed *color.Color
}

// NewPrinter creates a printer writing to w. Colors are used only when
// colored is set.
func NewPrinter(w io.Writer, colored bool) *Printer {
	p := &Printer{
		w:      w,
		header: color.New(color.Bold, color.Underline),
		label:  color.New(color.FgCyan),
		failed: color.New(color.FgRed, color.Bold),
	}
	if !colored {
		p.header.DisableColor()
		p.label.DisableColor()
		p.failed.DisableColor()
	}
	return p
}

func (p *Printer) newTable(headers ...interface{}) table.Table {
	return table.New(headers...).
		WithWriter(p.w).
		WithHeaderFormatter(p.header.SprintfFunc()).
		WithFirstColumnFormatter(p.label.SprintfFunc())
}

// FormatSize renders a byte count the way every table does.
func FormatSize(size int64) string {
	if size < 0 {
		return "-" + humanize.IBytes(uint64(-size))
	}
	return humanize.IBytes(uint64(size))
}

// percent renders part of whole; an empty whole has no ratio.
func percent(part, whole int64) string {
	if whole == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}

// Cleaner prints the before/after table of an operation that removes
// files from a tree. Nothing is printed for a tree without files.
func (p *Printer) Cleaner(initialCount int, initialSize int64, leftCount int, leftSize int64) {
	if initialCount == 0 {
		return
	}

	tbl := p.newTable("", "Files", "Size")
	tbl.AddRow("Initial", initialCount, FormatSize(initialSize))
	tbl.AddRow("Left", leftCount, FormatSize(leftSize))
	tbl.AddRow("Removed", initialCount-leftCount, FormatSize(initialSize-leftSize))
	tbl.AddRow("Reduced to", percent(int64(leftCount), int64(initialCount)), percent(leftSize, initialSize))
	tbl.Print()
}

// Sync prints what a sync did to the work tree.
func (p *Printer) Sync(stats executor.Stats) {
	tbl := p.newTable("", "Files", "Size")
	tbl.AddRow("Total", stats.Total, FormatSize(stats.TotalSize))
	tbl.AddRow("Skipped", stats.Skipped, FormatSize(stats.SkippedSize))
	tbl.AddRow("Removed", stats.Removed, FormatSize(stats.RemovedSize))
	tbl.AddRow("Replaced", stats.Replaced, FormatSize(stats.ReplacedSize))
	tbl.AddRow("Copied", stats.Copied, FormatSize(stats.CopiedSize))
	tbl.Print()
	p.Failures(stats.Failed)
}

// Plan prints every non-skip item of a plan with its reason.
func (p *Printer) Plan(plan *planner.Plan) {
	tbl := p.newTable("Action", "Path", "Size", "Reason")
	for _, item := range plan.Items {
		if item.Action == planner.ActionSkip {
			continue
		}
		tbl.AddRow(string(item.Action), item.RelPath, FormatSize(item.Size), item.Reason)
	}
	tbl.Print()
}

// Analyze prints the size of a tree.
func (p *Printer) Analyze(path string, count int, size int64) {
	tbl := p.newTable("Path", "Files", "Size")
	tbl.AddRow(path, count, FormatSize(size))
	tbl.Print()
}

// Failures reports the number of failed per-file operations, if any.
func (p *Printer) Failures(n int) {
	if n == 0 {
		return
	}
	p.failed.Fprintf(p.w, "%d operations failed\n", n)
}
