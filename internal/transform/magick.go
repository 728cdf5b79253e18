package transform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/akrbdk/media-optimize-tools/internal/planner"
)

// magickEncoder shells out to ImageMagick, which handles every image format
// the classifier admits, including webp and heic.
type magickEncoder struct {
	bin string // "magick" (v7) or "convert" (v6)
}

// LookMagick returns the ImageMagick binary name, preferring the v7
// entrypoint over the legacy v6 convert.
func LookMagick() (string, bool) {
	for _, bin := range []string{"magick", "convert"} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin, true
		}
	}
	return "", false
}

func (e magickEncoder) Name() string { return "imagemagick" }

// Encode rewrites the image into tmp. The resize geometry carries the
// only-shrink flag so smaller sources keep their native size, EXIF
// orientation is baked into the pixels, and metadata is stripped.
func (e magickEncoder) Encode(ctx context.Context, plan planner.ImagePlan, tmp string) error {
	args := []string{
		plan.Path,
		"-auto-orient",
		"-strip",
		"-resize", fmt.Sprintf("%dx%d>", plan.MaxDim, plan.MaxDim),
	}
	if plan.Lossless {
		args = append(args, "-define", fmt.Sprintf("png:compression-level=%d", plan.Compression))
	} else {
		args = append(args, "-quality", strconv.Itoa(plan.Quality))
	}
	args = append(args, tmp)

	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w%s", e.bin, err, stderrTail(stderrBuf.String(), 3))
	}
	return nil
}
