// Package planner turns configuration and a file path into the concrete
// per-file transform plan: the encoder argument groups for a video, the
// parameter set for an image. Plans are plain data so the transform layer
// stays a thin executor and decisions can be asserted in tests directly.
package planner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/config"
)

// ImagePlan holds the parameters for one image transform. Path is the
// destination copy to be rewritten in place.
type ImagePlan struct {
	Path        string
	Kind        classify.ImageKind
	Lossless    bool
	MaxDim      int // longest edge after resize; sources below this stay at native size
	Quality     int // lossy quality, applied when Lossless is false
	Compression int // zlib level, applied when Lossless is true
}

// VideoPlan holds the ffmpeg decisions for one video transform. CodecArgs,
// AudioArgs, and FormatArgs are complete argument groups; ScaleFilter is the
// -vf value. Path is the destination copy to be rewritten in place.
type VideoPlan struct {
	Path        string
	ScaleFilter string
	CodecArgs   []string // -c:v plus quality and speed settings
	AudioArgs   []string // -c:a plus bitrate
	FormatArgs  []string // container flags, e.g. -movflags +faststart
}

// BuildImagePlan resolves the parameter set for one image file.
func BuildImagePlan(cfg *config.Config, path string) ImagePlan {
	kind := classify.KindOf(path)
	return ImagePlan{
		Path:        path,
		Kind:        kind,
		Lossless:    kind == classify.ImagePNG,
		MaxDim:      cfg.ImageMaxDim,
		Quality:     cfg.ImageQuality,
		Compression: cfg.PNGCompression,
	}
}

// BuildVideoPlan resolves the encoder decision matrix for one video file.
// The output container always matches the input extension, so the codec is
// chosen per container family:
//
//   - mp4/mov/m4v: HEVC with the hvc1 tag (Apple and browser playback) and
//     moved moov atom for streaming starts
//   - mkv: HEVC, no compatibility flags needed
//   - webm: VP9 with Opus audio, the only codecs the container allows
//   - avi/mpg/mpeg: H.264, the most compressed codec those muxers accept
func BuildVideoPlan(cfg *config.Config, path string) VideoPlan {
	plan := VideoPlan{
		Path:        path,
		ScaleFilter: buildScaleFilter(cfg.VideoMaxWidth, cfg.VideoMaxHeight),
	}

	crf := strconv.Itoa(cfg.VideoCRF)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".m4v":
		plan.CodecArgs = []string{
			"-c:v", "libx265",
			"-crf", crf,
			"-preset", cfg.VideoPreset,
			"-tag:v", "hvc1",
		}
		plan.AudioArgs = []string{"-c:a", "aac", "-b:a", cfg.AudioBitrate}
		plan.FormatArgs = []string{"-movflags", "+faststart"}
	case ".webm":
		plan.CodecArgs = []string{
			"-c:v", "libvpx-vp9",
			"-crf", crf,
			"-b:v", "0", // pure constant-quality mode
			"-deadline", "good",
			"-cpu-used", strconv.Itoa(vp9Speed(cfg.VideoPreset)),
		}
		plan.AudioArgs = []string{"-c:a", "libopus", "-b:a", cfg.AudioBitrate}
	case ".avi", ".mpg", ".mpeg":
		plan.CodecArgs = []string{
			"-c:v", "libx264",
			"-crf", crf,
			"-preset", cfg.VideoPreset,
		}
		plan.AudioArgs = []string{"-c:a", "aac", "-b:a", cfg.AudioBitrate}
	default: // .mkv and anything classify admits later
		plan.CodecArgs = []string{
			"-c:v", "libx265",
			"-crf", crf,
			"-preset", cfg.VideoPreset,
		}
		plan.AudioArgs = []string{"-c:a", "aac", "-b:a", cfg.AudioBitrate}
	}
	return plan
}

// buildScaleFilter caps both axes without ever upscaling: the min()
// expressions keep smaller sources at native size, force_original_aspect_ratio
// preserves geometry when only one axis exceeds its cap, and the divisor
// keeps dimensions legal for 4:2:0 encoders. Commas inside min() are escaped
// for the filtergraph parser.
func buildScaleFilter(maxWidth, maxHeight int) string {
	return fmt.Sprintf(
		"scale=w=min(iw\\,%d):h=min(ih\\,%d):force_original_aspect_ratio=decrease:force_divisible_by=2",
		maxWidth, maxHeight,
	)
}

// vp9Speed maps the x265 preset vocabulary onto libvpx-vp9's cpu-used scale
// (0 slowest/best to 5 fastest) so one --video-preset flag drives both
// encoders.
func vp9Speed(preset string) int {
	switch preset {
	case "ultrafast", "superfast":
		return 5
	case "veryfast":
		return 4
	case "faster", "fast":
		return 3
	case "medium":
		return 2
	case "slow":
		return 1
	default: // slower, veryslow, placebo
		return 0
	}
}
