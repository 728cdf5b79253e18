// Package config holds runtime configuration: defaults, validation, and the
// path safety checks that run before any filesystem mutation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// --- Enum types for validated string fields ---

// MediaSelection restricts which categories are tracked and transformed.
// Files outside the selection are still copied; they just stay out of the
// inventory and the report.
type MediaSelection string

const (
	SelectAll    MediaSelection = "all"
	SelectImages MediaSelection = "images"
	SelectVideos MediaSelection = "videos"
)

// ImageEngine selects the image encoding backend.
type ImageEngine string

const (
	EngineAuto   ImageEngine = "auto"   // ImageMagick when installed, otherwise built-in (default).
	EngineMagick ImageEngine = "magick" // Require ImageMagick; fatal when missing.
	EngineNative ImageEngine = "native" // Built-in encoder (JPEG and PNG only).
)

// x265/x264 speed presets accepted for --video-preset, slowest to fastest
// trade-off order as ffmpeg defines them.
var videoPresets = map[string]bool{
	"ultrafast": true,
	"superfast": true,
	"veryfast":  true,
	"faster":    true,
	"fast":      true,
	"medium":    true,
	"slow":      true,
	"slower":    true,
	"veryslow":  true,
	"placebo":   true,
}

// Config holds all runtime settings for an optimize run. It is populated by
// [DefaultConfig] and then mutated by the CLI layer before being passed
// (by pointer) to packages that need it.
type Config struct {
	// Paths (set from positional args; DestDir defaults to SourceDir + "-optimized").
	SourceDir string
	DestDir   string

	// Selection.
	Only    MediaSelection // Default: "all".
	Exclude []string       // Glob patterns matched against slash-form relative paths.

	// Image encoding.
	ImageEngine    ImageEngine
	ImageMaxDim    int // Default: 2560. Longest edge after resize; never upscales.
	ImageQuality   int // Default: 82. Lossy quality 1..100.
	PNGCompression int // Default: 9. zlib level 0..9 for lossless formats.

	// Video encoding.
	VideoMaxWidth  int    // Default: 1920. Never upscales.
	VideoMaxHeight int    // Default: 1080.
	VideoCRF       int    // Default: 26. Constant rate factor 0..51.
	VideoPreset    string // Default: "medium".
	AudioBitrate   string // Default: "128k". Normalized by Validate.

	// Behavior.
	Jobs   int  // Default: 1 (sequential). Concurrent transform workers.
	DryRun bool // Inventory and report only; no copy, no transforms.

	// Display and logging.
	Verbose bool
	NoColor bool
	LogFile string // Optional log file path.
}

// DefaultConfig returns a Config with the documented defaults. Used as the
// base before the CLI layer applies flag and environment overrides.
func DefaultConfig() Config {
	return Config{
		Only:           SelectAll,
		ImageEngine:    EngineAuto,
		ImageMaxDim:    2560,
		ImageQuality:   82,
		PNGCompression: 9,
		VideoMaxWidth:  1920,
		VideoMaxHeight: 1080,
		VideoCRF:       26,
		VideoPreset:    "medium",
		AudioBitrate:   "128k",
		Jobs:           1,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// DefaultDestDir derives the destination for a source directory when the
// caller did not name one: a sibling with an "-optimized" suffix.
func DefaultDestDir(sourceDir string) string {
	return NormalizeDirArg(sourceDir) + "-optimized"
}

// WantImages reports whether the current selection includes image files.
func (c *Config) WantImages() bool {
	return c.Only == SelectAll || c.Only == SelectImages
}

// WantVideos reports whether the current selection includes video files.
func (c *Config) WantVideos() bool {
	return c.Only == SelectAll || c.Only == SelectVideos
}

// Validate checks enum fields, numeric ranges, exclude patterns, and the
// audio bitrate form. It normalizes AudioBitrate in place. Any error here is
// fatal to the run; validation happens before the destination is created.
func (c *Config) Validate() error {
	switch c.Only {
	case SelectAll, SelectImages, SelectVideos:
		// valid
	default:
		return errors.New("invalid selection (use 'all', 'images' or 'videos')")
	}

	switch c.ImageEngine {
	case EngineAuto, EngineMagick, EngineNative:
		// valid
	default:
		return errors.New("invalid image engine (use 'auto', 'magick' or 'native')")
	}

	if !videoPresets[c.VideoPreset] {
		return fmt.Errorf("invalid video preset %q (use an x265 preset such as 'medium' or 'slow')", c.VideoPreset)
	}

	if err := checkRange("image max dimension", c.ImageMaxDim, 16, 16384); err != nil {
		return err
	}
	if err := checkRange("image quality", c.ImageQuality, 1, 100); err != nil {
		return err
	}
	if err := checkRange("png compression level", c.PNGCompression, 0, 9); err != nil {
		return err
	}
	if err := checkRange("video max width", c.VideoMaxWidth, 16, 7680); err != nil {
		return err
	}
	if err := checkRange("video max height", c.VideoMaxHeight, 16, 4320); err != nil {
		return err
	}
	if err := checkRange("video crf", c.VideoCRF, 0, 51); err != nil {
		return err
	}
	if err := checkRange("jobs", c.Jobs, 1, 64); err != nil {
		return err
	}

	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	if c.SourceDir == "" {
		return errors.New("source directory must not be empty")
	}
	return nil
}

func checkRange(label string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d (got %d)", label, lo, hi, v)
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "128", "128k", "128K", "128kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 128k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

// ValidatePaths rejects source/destination layouts that would corrupt the
// run: identical directories, a destination inside the source (the copy
// would recurse into itself), or a source inside the destination (the
// transform phase would touch originals). Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(sourceAbs, destAbs string) error {
	sep := string(filepath.Separator)
	if sourceAbs == destAbs {
		return errors.New("source and destination must be different directories")
	}
	if strings.HasPrefix(destAbs+sep, sourceAbs+sep) {
		return errors.New("destination directory must not be inside source directory")
	}
	if strings.HasPrefix(sourceAbs+sep, destAbs+sep) {
		return errors.New("source directory must not be inside destination directory")
	}
	return nil
}
