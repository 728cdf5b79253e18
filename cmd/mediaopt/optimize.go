package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/akrbdk/media-optimize-tools/internal/config"
	"github.com/akrbdk/media-optimize-tools/internal/display"
	"github.com/akrbdk/media-optimize-tools/internal/logging"
	"github.com/akrbdk/media-optimize-tools/internal/mirror"
	"github.com/akrbdk/media-optimize-tools/internal/pipeline"
	"github.com/akrbdk/media-optimize-tools/internal/transform"
)

// defaults seeds the flag values so the documented defaults live in exactly
// one place.
var defaults = config.DefaultConfig()

// optimizeKeys maps viper keys to flag names. Every key is also readable
// from the environment as MEDIAOPT_<KEY>.
var optimizeKeys = map[string]string{
	"only":             "only",
	"exclude":          "exclude",
	"image_engine":     "image-engine",
	"image_max_dim":    "image-max-dim",
	"image_quality":    "image-quality",
	"png_compression":  "png-compression",
	"video_max_width":  "video-max-width",
	"video_max_height": "video-max-height",
	"video_crf":        "video-crf",
	"video_preset":     "video-preset",
	"audio_bitrate":    "audio-bitrate",
	"jobs":             "jobs",
	"dry_run":          "dry-run",
	"verbose":          "verbose",
	"no_color":         "no-color",
	"log_file":         "log-file",
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <source-dir> [dest-dir]",
	Short: "Mirror a tree and re-encode its media files",
	Long: `optimize copies <source-dir> to [dest-dir] (default: "<source-dir>-optimized")
with rsync, then rewrites every recognized image and video inside the copy.
The destination must not exist yet. All settings can also be given as
MEDIAOPT_* environment variables; flags win over the environment.`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: bindOptimizeFlags,
	RunE:    runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.SortFlags = false

	f.String("only", string(defaults.Only), `process "images", "videos", or "all"`)
	f.StringSlice("exclude", nil, "glob pattern for paths to skip (repeatable)")

	f.String("image-engine", string(defaults.ImageEngine), `image encoder: "auto", "magick", or "native"`)
	f.Int("image-max-dim", defaults.ImageMaxDim, "longest image edge after resize (never upscales)")
	f.Int("image-quality", defaults.ImageQuality, "lossy image quality 1-100")
	f.Int("png-compression", defaults.PNGCompression, "png compression level 0-9")

	f.Int("video-max-width", defaults.VideoMaxWidth, "maximum video width (never upscales)")
	f.Int("video-max-height", defaults.VideoMaxHeight, "maximum video height")
	f.Int("video-crf", defaults.VideoCRF, "video quality 0-51, lower is better")
	f.String("video-preset", defaults.VideoPreset, "encoder speed preset (ultrafast..placebo)")
	f.String("audio-bitrate", defaults.AudioBitrate, `audio bitrate, e.g. "128k"`)

	f.IntP("jobs", "j", defaults.Jobs, "concurrent transform workers")
	f.Bool("dry-run", false, "inventory and report only; write nothing")
	f.BoolP("verbose", "v", false, "debug logging and encoder output")
	f.Bool("no-color", false, "disable colored output")
	f.String("log-file", "", "append logs to this file as well")

	rootCmd.AddCommand(optimizeCmd)
}

func bindOptimizeFlags(cmd *cobra.Command, _ []string) error {
	for key, flag := range optimizeKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	viper.SetEnvPrefix("MEDIAOPT")
	viper.AutomaticEnv()
	return nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	log, closeLog, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		NoColor: cfg.NoColor,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	// Config is valid; errors past this point are runtime failures, not
	// usage mistakes.
	cmd.SilenceUsage = true
	display.Banner(os.Stdout, version)

	tr, err := transform.New(&cfg)
	if err != nil {
		return err
	}
	if cfg.WantImages() {
		log.Info("image engine resolved", "engine", tr.ImageEngineName())
	}

	spinner := !cfg.Verbose && isatty.IsTerminal(os.Stderr.Fd()) && !cfg.NoColor
	runner := &pipeline.Runner{
		Cfg:         &cfg,
		Log:         log,
		Copier:      mirror.WithProgress(mirror.NewRsync(), spinner),
		Transformer: tr,
		Out:         os.Stdout,
	}

	stats, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("run complete",
		"transformed", stats.Transformed,
		"failed", stats.Failed,
		"skipped", stats.Skipped)
	return nil
}

// resolveConfig merges defaults, environment, flags, and positional args
// into a validated Config. Numeric settings are read back as strings and
// parsed here: viper silently turns a malformed number into zero, and a
// typo in MEDIAOPT_VIDEO_CRF must stop the run, not re-encode a library at
// CRF 0.
func resolveConfig(args []string) (config.Config, error) {
	cfg := config.DefaultConfig()

	cfg.SourceDir = config.NormalizeDirArg(args[0])
	if len(args) > 1 {
		cfg.DestDir = config.NormalizeDirArg(args[1])
	} else {
		cfg.DestDir = config.DefaultDestDir(cfg.SourceDir)
	}

	cfg.Only = config.MediaSelection(viper.GetString("only"))
	cfg.Exclude = splitExcludes(viper.GetStringSlice("exclude"))
	cfg.ImageEngine = config.ImageEngine(viper.GetString("image_engine"))
	cfg.VideoPreset = viper.GetString("video_preset")
	cfg.AudioBitrate = viper.GetString("audio_bitrate")
	cfg.DryRun = viper.GetBool("dry_run")
	cfg.Verbose = viper.GetBool("verbose")
	cfg.NoColor = viper.GetBool("no_color") || os.Getenv("NO_COLOR") != ""
	cfg.LogFile = viper.GetString("log_file")

	var err error
	if cfg.ImageMaxDim, err = intSetting("image_max_dim"); err != nil {
		return cfg, err
	}
	if cfg.ImageQuality, err = intSetting("image_quality"); err != nil {
		return cfg, err
	}
	if cfg.PNGCompression, err = intSetting("png_compression"); err != nil {
		return cfg, err
	}
	if cfg.VideoMaxWidth, err = intSetting("video_max_width"); err != nil {
		return cfg, err
	}
	if cfg.VideoMaxHeight, err = intSetting("video_max_height"); err != nil {
		return cfg, err
	}
	if cfg.VideoCRF, err = intSetting("video_crf"); err != nil {
		return cfg, err
	}
	if cfg.Jobs, err = intSetting("jobs"); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitExcludes normalizes exclude patterns from both sources. pflag splits
// repeated and comma-separated --exclude values itself, but a comma-separated
// MEDIAOPT_EXCLUDE string reaches viper as a single element, so each entry is
// split on commas here.
func splitExcludes(raw []string) []string {
	var patterns []string
	for _, entry := range raw {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	return patterns
}

func intSetting(key string) (int, error) {
	raw := strings.TrimSpace(viper.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s (flag --%s or MEDIAOPT_%s)",
			raw, key, optimizeKeys[key], strings.ToUpper(key))
	}
	return n, nil
}
