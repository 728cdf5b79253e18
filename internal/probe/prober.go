// Package probe wraps ffprobe for output verification. A transcoded file is
// probed before it replaces the copied original, so a truncated or corrupt
// encode can never overwrite good bytes.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the parsed ffprobe output for one file.
type Result struct {
	Format  Format
	Streams []Stream
}

// Format holds the container-level fields verification cares about.
type Format struct {
	FormatName string
	Duration   float64
	Size       int64
}

// Stream holds the per-stream fields verification cares about.
type Stream struct {
	Index     int
	CodecType string
	CodecName string
	Width     int
	Height    int
}

// HasVideo reports whether at least one video stream is present.
func (r *Result) HasVideo() bool {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

// Probe runs a single ffprobe JSON call against path and returns the parsed
// result.
func Probe(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out)
}

// Verify probes a freshly written transcode and rejects it unless it parses
// as a media file with at least one video stream.
func Verify(ctx context.Context, path string) error {
	pr, err := Probe(ctx, path)
	if err != nil {
		return err
	}
	if !pr.HasVideo() {
		return fmt.Errorf("transcoded file %q has no video stream", path)
	}
	return nil
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	r := &Result{
		Format: Format{
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
			Size:       parseInt64(raw.Format.Size),
		},
	}
	for _, s := range raw.Streams {
		r.Streams = append(r.Streams, Stream{
			Index:     s.Index,
			CodecType: s.CodecType,
			CodecName: s.CodecName,
			Width:     s.Width,
			Height:    s.Height,
		})
	}
	return r, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
