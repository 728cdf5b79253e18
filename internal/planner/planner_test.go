package planner

import (
	"strings"
	"testing"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/config"
)

// hasPair reports whether args contains flag immediately followed by value.
func hasPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildVideoPlan_CodecByContainer(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		videoCodec string
		audioCodec string
		hvc1Tag    bool
		faststart  bool
	}{
		{"mp4", "clips/a.mp4", "libx265", "aac", true, true},
		{"mov", "clips/a.mov", "libx265", "aac", true, true},
		{"m4v", "clips/a.m4v", "libx265", "aac", true, true},
		{"uppercase mp4", "clips/A.MP4", "libx265", "aac", true, true},
		{"mkv", "rips/a.mkv", "libx265", "aac", false, false},
		{"webm", "web/a.webm", "libvpx-vp9", "libopus", false, false},
		{"avi", "old/a.avi", "libx264", "aac", false, false},
		{"mpg", "old/a.mpg", "libx264", "aac", false, false},
		{"mpeg", "old/a.mpeg", "libx264", "aac", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			plan := BuildVideoPlan(&cfg, tt.path)

			if !hasPair(plan.CodecArgs, "-c:v", tt.videoCodec) {
				t.Errorf("CodecArgs = %v, want -c:v %s", plan.CodecArgs, tt.videoCodec)
			}
			if !hasPair(plan.AudioArgs, "-c:a", tt.audioCodec) {
				t.Errorf("AudioArgs = %v, want -c:a %s", plan.AudioArgs, tt.audioCodec)
			}
			if got := hasPair(plan.CodecArgs, "-tag:v", "hvc1"); got != tt.hvc1Tag {
				t.Errorf("hvc1 tag present = %v, want %v (args %v)", got, tt.hvc1Tag, plan.CodecArgs)
			}
			if got := hasPair(plan.FormatArgs, "-movflags", "+faststart"); got != tt.faststart {
				t.Errorf("faststart present = %v, want %v (args %v)", got, tt.faststart, plan.FormatArgs)
			}
		})
	}
}

func TestBuildVideoPlan_QualitySettings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VideoCRF = 30
	cfg.VideoPreset = "slow"
	cfg.AudioBitrate = "96k"

	plan := BuildVideoPlan(&cfg, "a.mkv")
	if !hasPair(plan.CodecArgs, "-crf", "30") {
		t.Errorf("CodecArgs = %v, want -crf 30", plan.CodecArgs)
	}
	if !hasPair(plan.CodecArgs, "-preset", "slow") {
		t.Errorf("CodecArgs = %v, want -preset slow", plan.CodecArgs)
	}
	if !hasPair(plan.AudioArgs, "-b:a", "96k") {
		t.Errorf("AudioArgs = %v, want -b:a 96k", plan.AudioArgs)
	}
}

func TestBuildVideoPlan_WebmConstantQuality(t *testing.T) {
	cfg := config.DefaultConfig()
	plan := BuildVideoPlan(&cfg, "a.webm")

	// VP9 constant-quality mode requires an explicit zero target bitrate,
	// and -preset is an x26x option the vpx encoder would reject.
	if !hasPair(plan.CodecArgs, "-b:v", "0") {
		t.Errorf("CodecArgs = %v, want -b:v 0", plan.CodecArgs)
	}
	for _, a := range plan.CodecArgs {
		if a == "-preset" {
			t.Errorf("CodecArgs = %v, -preset must not reach libvpx", plan.CodecArgs)
		}
	}
	if !hasPair(plan.CodecArgs, "-cpu-used", "2") {
		t.Errorf("CodecArgs = %v, want -cpu-used 2 for the medium preset", plan.CodecArgs)
	}
}

func TestVP9SpeedMapping(t *testing.T) {
	tests := []struct {
		preset string
		want   int
	}{
		{"ultrafast", 5},
		{"superfast", 5},
		{"veryfast", 4},
		{"faster", 3},
		{"fast", 3},
		{"medium", 2},
		{"slow", 1},
		{"slower", 0},
		{"veryslow", 0},
		{"placebo", 0},
	}
	for _, tt := range tests {
		if got := vp9Speed(tt.preset); got != tt.want {
			t.Errorf("vp9Speed(%q) = %d, want %d", tt.preset, got, tt.want)
		}
	}
}

func TestBuildVideoPlan_ScaleFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VideoMaxWidth = 1280
	cfg.VideoMaxHeight = 720

	plan := BuildVideoPlan(&cfg, "a.mp4")
	for _, fragment := range []string{
		`min(iw\,1280)`,
		`min(ih\,720)`,
		"force_original_aspect_ratio=decrease",
		"force_divisible_by=2",
	} {
		if !strings.Contains(plan.ScaleFilter, fragment) {
			t.Errorf("ScaleFilter = %q, missing %q", plan.ScaleFilter, fragment)
		}
	}
}

func TestBuildImagePlan(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ImageMaxDim = 2000
	cfg.ImageQuality = 75
	cfg.PNGCompression = 8

	tests := []struct {
		name     string
		path     string
		kind     classify.ImageKind
		lossless bool
	}{
		{"jpeg is lossy", "photo.jpg", classify.ImageJPEG, false},
		{"webp is lossy", "hero.webp", classify.ImageWebP, false},
		{"heic is lossy", "shot.heic", classify.ImageHEIC, false},
		{"png is lossless", "chart.png", classify.ImagePNG, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildImagePlan(&cfg, tt.path)
			if plan.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", plan.Kind, tt.kind)
			}
			if plan.Lossless != tt.lossless {
				t.Errorf("Lossless = %v, want %v", plan.Lossless, tt.lossless)
			}
			if plan.MaxDim != 2000 || plan.Quality != 75 || plan.Compression != 8 {
				t.Errorf("parameters not carried: %+v", plan)
			}
		})
	}
}
