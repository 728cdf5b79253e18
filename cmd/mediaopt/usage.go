package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/akrbdk/media-optimize-tools/internal/config"
	"github.com/akrbdk/media-optimize-tools/internal/display"
	"github.com/akrbdk/media-optimize-tools/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage <dir> [dir...]",
	Short: "Show disk usage per subdirectory (read-only)",
	Long: `usage walks each directory and prints file counts and byte totals grouped
by subdirectory, largest first. Nothing is written; this is the quick way to
compare a source tree with its optimized copy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().IntP("depth", "d", 1, "directory depth to group by")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	if depth < 1 {
		return fmt.Errorf("--depth must be at least 1, got %d", depth)
	}

	cmd.SilenceUsage = true
	for i, dir := range args {
		if i > 0 {
			fmt.Println()
		}
		listing, err := usage.List(config.NormalizeDirArg(dir), depth)
		if err != nil {
			return err
		}
		printListing(os.Stdout, listing)
	}
	return nil
}

func printListing(w io.Writer, l usage.Listing) {
	fmt.Fprintf(w, "%s\n", l.Root)
	for _, e := range l.Entries {
		fmt.Fprintf(w, "  %9s  %7s files  %s\n",
			display.FormatBytes(e.Bytes), display.FormatCount(e.Files), e.Path)
	}
	fmt.Fprintf(w, "  total: %s in %s files\n",
		display.FormatBytes(l.Total.Bytes), display.FormatCount(l.Total.Files))
}
