package transform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/akrbdk/media-optimize-tools/internal/planner"
	"github.com/akrbdk/media-optimize-tools/internal/probe"
)

// buildVideoArgs constructs the complete ffmpeg argument slice for one
// transcode. Input is the copied original at plan.Path; output is the temp
// sibling, whose suffix keeps the real extension so the muxer is inferred
// from it.
func buildVideoArgs(plan planner.VideoPlan, tmp string, verbose bool) []string {
	args := make([]string, 0, 32)

	// --- Preamble ---
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-y")
	if verbose {
		args = append(args, "-loglevel", "info", "-stats", "-stats_period", "1")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args, "-i", plan.Path)

	// --- Scale (never upsizes) ---
	args = append(args, "-vf", plan.ScaleFilter)

	// --- Codec groups from the plan ---
	args = append(args, plan.CodecArgs...)
	args = append(args, plan.AudioArgs...)

	// --- Carry global metadata and chapters ---
	args = append(args, "-map_metadata", "0", "-map_chapters", "0")

	// --- Container opts (e.g. -movflags +faststart) ---
	args = append(args, plan.FormatArgs...)

	// --- Output ---
	args = append(args, tmp)
	return args
}

// runFFmpeg executes the transcode into tmp and verifies the result with
// ffprobe. Stderr is captured for error reporting; when verbose, encoder
// progress is tee'd through to the console as well.
func (t *MediaTransformer) runFFmpeg(ctx context.Context, plan planner.VideoPlan, tmp string) error {
	args := buildVideoArgs(plan, tmp, t.verbose)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if t.verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w%s", err, stderrTail(stderrBuf.String(), 3))
	}
	return probe.Verify(ctx, tmp)
}

// stderrTail formats the last n stderr lines as a compact error suffix.
func stderrTail(stderr string, n int) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return ": " + strings.Join(lines, " | ")
}
