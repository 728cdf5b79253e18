package transform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/planner"
)

// nativeEncoder re-encodes JPEG and PNG in process, the fallback when
// ImageMagick is not installed. Re-encoding never writes EXIF back, so
// metadata stripping is implicit; orientation is baked into the pixels
// first. webp and heic sources fail per-file with a pointer to ImageMagick.
type nativeEncoder struct{}

func (nativeEncoder) Name() string { return "native" }

func (nativeEncoder) Encode(ctx context.Context, plan planner.ImagePlan, tmp string) error {
	switch plan.Kind {
	case classify.ImageJPEG, classify.ImagePNG:
	default:
		return fmt.Errorf("built-in image engine cannot encode %s files (install ImageMagick)", plan.Kind)
	}

	data, err := os.ReadFile(plan.Path)
	if err != nil {
		return err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %q: %w", plan.Path, err)
	}
	if format == "jpeg" {
		img = applyOrientation(img, readOrientation(data))
	}

	if plan.MaxDim > 0 {
		// Thumbnail shrinks to fit the box and leaves smaller images alone.
		img = resize.Thumbnail(uint(plan.MaxDim), uint(plan.MaxDim), img, resize.Lanczos3)
	}

	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	switch plan.Kind {
	case classify.ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: plan.Quality})
	case classify.ImagePNG:
		enc := png.Encoder{CompressionLevel: pngLevel(plan.Compression)}
		err = enc.Encode(out, img)
	}
	if err != nil {
		out.Close()
		return fmt.Errorf("encode %q: %w", tmp, err)
	}
	return out.Close()
}

// readOrientation extracts the EXIF orientation value (1..8), returning 1
// (upright) when the tag is missing or unreadable.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// applyOrientation normalizes the eight EXIF orientations to upright pixels.
func applyOrientation(img image.Image, orientation int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch orientation {
	case 2: // mirrored horizontally
		return remap(img, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
	case 3: // upside down
		return remap(img, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4: // mirrored vertically
		return remap(img, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
	case 5: // transposed
		return remap(img, h, w, func(x, y int) (int, int) { return y, x })
	case 6: // stored rotated 90 CCW; rotate CW to upright
		return remap(img, h, w, func(x, y int) (int, int) { return y, h - 1 - x })
	case 7: // transverse
		return remap(img, h, w, func(x, y int) (int, int) { return w - 1 - y, h - 1 - x })
	case 8: // stored rotated 90 CW; rotate CCW to upright
		return remap(img, h, w, func(x, y int) (int, int) { return w - 1 - y, x })
	default:
		return img
	}
}

// remap builds a w-by-h image whose pixel at (x, y) is taken from src at the
// coordinates f returns, expressed relative to src's bounds origin.
func remap(src image.Image, w, h int, f func(x, y int) (int, int)) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := f(x, y)
			dst.Set(x, y, src.At(b.Min.X+sx, b.Min.Y+sy))
		}
	}
	return dst
}

// pngLevel maps the CLI's 0..9 scale onto the stdlib encoder's levels.
func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
