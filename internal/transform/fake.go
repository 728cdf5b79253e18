package transform

import (
	"context"
	"os"

	"github.com/akrbdk/media-optimize-tools/internal/planner"
)

// Fake is a Transformer for tests. Each hook receives the destination path
// and may rewrite or remove it; a nil hook reports success without touching
// the file. Deterministic hooks keep pipeline tests independent of any
// installed encoder.
type Fake struct {
	Image func(path string) error
	Video func(path string) error
}

func (f *Fake) TransformImage(_ context.Context, plan planner.ImagePlan) error {
	if f.Image == nil {
		return nil
	}
	return f.Image(plan.Path)
}

func (f *Fake) TransformVideo(_ context.Context, plan planner.VideoPlan) error {
	if f.Video == nil {
		return nil
	}
	return f.Video(plan.Path)
}

// Truncate returns a hook that rewrites the target file to exactly size
// bytes, simulating a transform with a known outcome.
func Truncate(size int64) func(path string) error {
	return func(path string) error {
		return os.Truncate(path, size)
	}
}
