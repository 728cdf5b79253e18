// Command mediaopt copies a media library into a new directory tree and
// re-encodes the images and videos in the copy to reclaim disk space. The
// source tree is never modified.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version and commit are injected at build time via -ldflags. Plain
// "go build" keeps the defaults.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "mediaopt",
	Short: "Copy a media library and shrink the copy",
	Long: `mediaopt mirrors a directory tree with rsync, re-encodes the images and
videos inside the copy, and prints a before/after savings report. Originals
are never touched; a failed transform leaves the copied file as rsync wrote
it.`,
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
	rootCmd.SetVersionTemplate("mediaopt {{.Version}}\n")
}

func main() {
	// Cancelling the context kills any running encoder; the pipeline then
	// measures what was done and still prints the report.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
