// Package pipeline orchestrates one optimization run end to end: pre-flight
// validation, source inventory, the mirror copy, per-file transforms inside
// the destination tree, the measurement pass, and the final report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/akrbdk/media-optimize-tools/internal/check"
	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/config"
	"github.com/akrbdk/media-optimize-tools/internal/display"
	"github.com/akrbdk/media-optimize-tools/internal/inventory"
	"github.com/akrbdk/media-optimize-tools/internal/mirror"
	"github.com/akrbdk/media-optimize-tools/internal/planner"
	"github.com/akrbdk/media-optimize-tools/internal/report"
	"github.com/akrbdk/media-optimize-tools/internal/transform"
	"github.com/akrbdk/media-optimize-tools/internal/usage"
)

// Runner wires the collaborators of one run. The CLI assembles it with the
// production copier and transformer; tests swap in fakes.
type Runner struct {
	Cfg         *config.Config
	Log         *slog.Logger
	Copier      mirror.Copier
	Transformer transform.Transformer
	Out         io.Writer // report destination, normally stdout
}

// RunStats summarizes the dispatch outcome for the caller. Per-file failures
// are counted here, not returned as errors.
type RunStats struct {
	Tracked     int
	Transformed int
	Failed      int
	Skipped     int
	Interrupted bool
}

// errSkipped marks files never attempted because the run was interrupted.
var errSkipped = errors.New("skipped")

// Run executes the phases in their fixed order. Every validation runs before
// the first byte is written; from the copy on, per-file problems are logged
// and the run continues. The error return is reserved for fatal conditions.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats
	cfg := r.Cfg

	if err := r.preflight(); err != nil {
		return stats, err
	}

	files, err := inventory.Build(cfg.SourceDir, inventory.BuildOptions{
		Images:  cfg.WantImages(),
		Videos:  cfg.WantVideos(),
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return stats, err
	}
	stats.Tracked = len(files)
	r.logRunHeader(len(files))

	if cfg.DryRun {
		report.Render(r.Out, files, report.Options{DryRun: true})
		return stats, nil
	}

	lock, err := mirror.AcquireLock(cfg.DestDir)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.Log.Warn("could not release destination lock; remove it by hand",
				"path", cfg.DestDir+".lock", "err", err)
		}
	}()

	r.Log.Info("copying tree", "source", cfg.SourceDir, "dest", cfg.DestDir)
	if err := r.Copier.Copy(ctx, cfg.SourceDir, cfg.DestDir, cfg.Exclude); err != nil {
		return stats, fmt.Errorf("copy phase: %w", err)
	}

	r.dispatch(ctx, files, &stats)
	r.measure(files)

	report.Render(r.Out, files, report.Options{
		Interrupted: stats.Interrupted,
		Skipped:     stats.Skipped,
	})
	r.usageLine()
	return stats, nil
}

// preflight runs every check that must pass before any mutation: config
// values, source readability, a destination that does not exist yet, no
// nesting between the two trees, and the external tools the selected
// categories will shell out to.
func (r *Runner) preflight() error {
	cfg := r.Cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	srcAbs, err := resolveExisting(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", cfg.SourceDir)
	}

	destAbs, err := resolveDest(cfg.DestDir)
	if err != nil {
		return fmt.Errorf("destination directory: %w", err)
	}
	if _, err := os.Lstat(cfg.DestDir); err == nil {
		return fmt.Errorf("destination %q already exists; remove it or pick another directory", cfg.DestDir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("destination directory: %w", err)
	}

	if err := cfg.ValidatePaths(srcAbs, destAbs); err != nil {
		return err
	}
	return check.CheckDeps(cfg)
}

// dispatch transforms every tracked file in the destination tree, at most
// Jobs at a time. Results are collected per index and reduced after the
// join; nothing here mutates the tracked-file table.
func (r *Runner) dispatch(ctx context.Context, files []inventory.TrackedFile, stats *RunStats) {
	cfg := r.Cfg
	total := len(files)

	results := make([]error, total)
	var g errgroup.Group
	g.SetLimit(cfg.Jobs)

	for i := range files {
		f := &files[i]
		idx := i
		g.Go(func() error {
			if ctx.Err() != nil {
				results[idx] = errSkipped
				return nil
			}

			r.Log.Info(fmt.Sprintf("[%d/%d] %s", idx+1, total, f.RelPath), "category", f.Category.String())
			dest := filepath.Join(cfg.DestDir, filepath.FromSlash(f.RelPath))

			var err error
			switch f.Category {
			case classify.CategoryImage:
				err = r.Transformer.TransformImage(ctx, planner.BuildImagePlan(cfg, dest))
			case classify.CategoryVideo:
				err = r.Transformer.TransformVideo(ctx, planner.BuildVideoPlan(cfg, dest))
			}
			if err != nil {
				r.Log.Warn(fmt.Sprintf("[%d/%d] %s failed, keeping copied original", idx+1, total, f.RelPath), "err", err)
			}
			results[idx] = err
			return nil
		})
	}
	g.Wait()

	for _, err := range results {
		switch {
		case err == nil:
			stats.Transformed++
		case errors.Is(err, errSkipped):
			stats.Skipped++
		default:
			stats.Failed++
		}
	}
	if ctx.Err() != nil {
		stats.Interrupted = true
		r.Log.Warn("interrupted; remaining files keep their copied originals",
			"transformed", stats.Transformed, "skipped", stats.Skipped)
	}
}

// measure re-stats every tracked file at the destination. It runs strictly
// after the dispatch join and is the only code that sets SizeAfter. A file
// that disappeared stays unmeasured; the report excludes it from savings
// instead of scoring it as fully saved.
func (r *Runner) measure(files []inventory.TrackedFile) {
	for i := range files {
		f := &files[i]
		fi, err := os.Stat(filepath.Join(r.Cfg.DestDir, filepath.FromSlash(f.RelPath)))
		if err != nil {
			r.Log.Warn("missing at destination", "path", f.RelPath)
			continue
		}
		f.SizeAfter = fi.Size()
		f.Measured = true
	}
}

// usageLine appends the source/destination disk comparison under the report.
// Failures here are ignored; the report has already been printed.
func (r *Runner) usageLine() {
	src, err := usage.Scan(r.Cfg.SourceDir)
	if err != nil {
		return
	}
	dst, err := usage.Scan(r.Cfg.DestDir)
	if err != nil {
		return
	}
	fmt.Fprintf(r.Out, "\nDisk usage: source %s, destination %s\n",
		display.FormatBytes(src.Bytes), display.FormatBytes(dst.Bytes))
}

func (r *Runner) logRunHeader(total int) {
	cfg := r.Cfg
	r.Log.Info("starting optimization",
		"source", cfg.SourceDir,
		"dest", cfg.DestDir,
		"files", total,
		"selection", string(cfg.Only),
		"jobs", cfg.Jobs,
		"dry_run", cfg.DryRun)
	if cfg.WantImages() {
		r.Log.Info("image settings",
			"max_dim", cfg.ImageMaxDim,
			"quality", cfg.ImageQuality,
			"png_compression", cfg.PNGCompression)
	}
	if cfg.WantVideos() {
		r.Log.Info("video settings",
			"max", fmt.Sprintf("%dx%d", cfg.VideoMaxWidth, cfg.VideoMaxHeight),
			"crf", cfg.VideoCRF,
			"preset", cfg.VideoPreset,
			"audio_bitrate", cfg.AudioBitrate)
	}
}

// resolveExisting returns the absolute, symlink-resolved form of a path that
// must already exist.
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// resolveDest returns the comparable absolute form of the destination, which
// does not exist yet: its parent is symlink-resolved when present so the
// nesting checks compare real locations.
func resolveDest(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}
