// Package report renders the end-of-run savings summary from the tracked-file
// table. Everything printed here is recomputed from the table in one fold, so
// the report can never disagree with the files it describes.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/akrbdk/media-optimize-tools/internal/display"
	"github.com/akrbdk/media-optimize-tools/internal/inventory"
)

// maxRanked caps the top-savings listing so a huge library cannot flood the
// terminal.
const maxRanked = 1000

// Options control the report variant.
type Options struct {
	DryRun      bool
	Interrupted bool
	Skipped     int // files never attempted because the run was interrupted
}

// Render writes the summary for files to w. It never fails: an empty or
// fully-failed run still produces output.
func Render(w io.Writer, files []inventory.TrackedFile, opts Options) {
	totals := inventory.Aggregate(files)
	sum := totals.Sum()

	fmt.Fprintln(w, strings.Repeat("=", 30))
	switch {
	case opts.DryRun:
		fmt.Fprintln(w, "Optimization report (dry run)")
	case opts.Interrupted:
		fmt.Fprintln(w, "Optimization report (interrupted)")
	default:
		fmt.Fprintln(w, "Optimization report")
	}
	if opts.Interrupted && opts.Skipped > 0 {
		msg := fmt.Sprintf("Run interrupted: %s files were never attempted and keep their copied originals.",
			display.FormatCount(opts.Skipped))
		if opts.Skipped == 1 {
			msg = "Run interrupted: 1 file was never attempted and keeps its copied original."
		}
		fmt.Fprintln(w, color.YellowString("%s", msg))
	}

	if sum.Count == 0 {
		if opts.DryRun {
			fmt.Fprintln(w, "No image or video files were found.")
		} else {
			fmt.Fprintln(w, "No image or video files were changed.")
		}
		return
	}

	renderRow(w, "Images:", totals.Images, opts.DryRun)
	renderRow(w, "Videos:", totals.Videos, opts.DryRun)
	renderRow(w, "Total:", sum, opts.DryRun)

	if opts.DryRun {
		return
	}

	renderTopSavings(w, files)

	if sum.Missing > 0 {
		noun := "files"
		if sum.Missing == 1 {
			noun = "file"
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.YellowString("Warning: %s %s missing at the destination (%s not counted).",
			display.FormatCount(sum.Missing), noun, display.FormatBytes(sum.BytesMissing)))
	}
}

// renderRow prints one aggregate line. Categories nothing was tracked for
// are omitted; the Total row always prints.
func renderRow(w io.Writer, label string, t inventory.CategoryTotals, dryRun bool) {
	if t.Count == 0 && label != "Total:" {
		return
	}

	if dryRun {
		fmt.Fprintf(w, "  %-8s %s files, %s, saved n/a (dry run)\n",
			label, display.FormatCount(t.Count), display.FormatBytes(t.BytesBefore))
		return
	}

	before := t.MeasuredBefore()
	saved := t.BytesSaved()
	fmt.Fprintf(w, "  %-8s %s files, %s -> %s, %s\n",
		label,
		display.FormatCount(t.Count),
		display.FormatBytes(before),
		display.FormatBytes(t.BytesAfter),
		savedClause(saved, before))
}

// savedClause formats "saved X (+P.p%)", green for a real saving, yellow for
// growth, plain when nothing changed.
func savedClause(saved, before int64) string {
	s := fmt.Sprintf("saved %s (%s)", display.FormatBytes(saved), display.FormatPercent(saved, before))
	switch {
	case saved > 0:
		return color.GreenString("%s", s)
	case saved < 0:
		return color.YellowString("%s", s)
	default:
		return s
	}
}

func renderTopSavings(w io.Writer, files []inventory.TrackedFile) {
	ranked := inventory.TopSavings(files, maxRanked)
	if len(ranked) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top savings:")
	for i, f := range ranked {
		fmt.Fprintf(w, "%4d. %s  %s (%s -> %s)\n",
			i+1,
			display.FormatBytesWithSign(f.BytesSaved()),
			f.RelPath,
			display.FormatBytes(f.SizeBefore),
			display.FormatBytes(f.SizeAfter))
	}
}
