// Package transform rewrites copied media files in place: ffmpeg transcodes
// for videos, ImageMagick or a built-in encoder for images. Every transform
// follows the same discipline regardless of engine: write a temp sibling,
// verify it, rename it over the destination copy. A failure at any step
// leaves the copied original untouched.
package transform

import (
	"context"
	"errors"

	"github.com/akrbdk/media-optimize-tools/internal/config"
	"github.com/akrbdk/media-optimize-tools/internal/planner"
)

// Transformer is the capability the dispatch phase drives, one method per
// media category. Implementations must be safe for concurrent calls on
// distinct files.
type Transformer interface {
	TransformImage(ctx context.Context, plan planner.ImagePlan) error
	TransformVideo(ctx context.Context, plan planner.VideoPlan) error
}

// imageEncoder writes the transformed image for plan to tmp.
type imageEncoder interface {
	Name() string
	Encode(ctx context.Context, plan planner.ImagePlan, tmp string) error
}

// MediaTransformer is the production Transformer.
type MediaTransformer struct {
	images  imageEncoder
	verbose bool
}

// ErrMagickRequired is returned by New when --image-engine=magick is set but
// no ImageMagick binary is on PATH.
var ErrMagickRequired = errors.New("imagemagick not found on PATH (install it or use --image-engine native)")

// New resolves the configured image engine and returns the production
// transformer. EngineAuto prefers ImageMagick and falls back to the built-in
// encoder; EngineMagick fails here, before any mutation, when the binary is
// missing.
func New(cfg *config.Config) (*MediaTransformer, error) {
	t := &MediaTransformer{verbose: cfg.Verbose}

	switch cfg.ImageEngine {
	case config.EngineNative:
		t.images = nativeEncoder{}
	case config.EngineMagick:
		bin, ok := LookMagick()
		if !ok {
			return nil, ErrMagickRequired
		}
		t.images = magickEncoder{bin: bin}
	default: // EngineAuto
		if bin, ok := LookMagick(); ok {
			t.images = magickEncoder{bin: bin}
		} else {
			t.images = nativeEncoder{}
		}
	}
	return t, nil
}

// ImageEngineName reports which image engine was resolved, for run logs.
func (t *MediaTransformer) ImageEngineName() string {
	return t.images.Name()
}

// TransformImage rewrites one image under the temp-then-rename discipline.
func (t *MediaTransformer) TransformImage(ctx context.Context, plan planner.ImagePlan) error {
	return replaceWithTemp(plan.Path, func(tmp string) error {
		return t.images.Encode(ctx, plan, tmp)
	})
}

// TransformVideo transcodes one video under the temp-then-rename discipline.
// The temp output must pass an ffprobe check before it replaces the copy;
// an encode that exits zero but produces an unreadable file is treated as a
// failure.
func (t *MediaTransformer) TransformVideo(ctx context.Context, plan planner.VideoPlan) error {
	return replaceWithTemp(plan.Path, func(tmp string) error {
		return t.runFFmpeg(ctx, plan, tmp)
	})
}
