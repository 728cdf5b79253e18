package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/akrbdk/media-optimize-tools/internal/check"
	"github.com/akrbdk/media-optimize-tools/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify rsync, ffmpeg, ffprobe, and ImageMagick are usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}

		cfg := config.DefaultConfig()
		engine, err := cmd.Flags().GetString("image-engine")
		if err != nil {
			return err
		}
		cfg.ImageEngine = config.ImageEngine(engine)
		switch cfg.ImageEngine {
		case config.EngineAuto, config.EngineMagick, config.EngineNative:
		default:
			cmd.SilenceUsage = false
			return fmt.Errorf("invalid image engine %q (use 'auto', 'magick' or 'native')", engine)
		}

		check.RunCheck(os.Stdout, &cfg)
		return nil
	},
}

func init() {
	checkCmd.Flags().String("image-engine", string(defaults.ImageEngine),
		`image encoder to resolve: "auto", "magick", or "native"`)
	checkCmd.Flags().Bool("no-color", false, "disable colored output")
	rootCmd.AddCommand(checkCmd)
}
