package mirror

import (
	"context"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// WithProgress wraps a Copier with a console spinner. rsync reports no
// usable total up front, so the spinner only signals liveness during what
// can be the longest silent stretch of a run. Pass enabled=false (non-TTY,
// --no-color) for a plain passthrough.
func WithProgress(c Copier, enabled bool) Copier {
	if !enabled {
		return c
	}
	return &progressCopier{inner: c}
}

type progressCopier struct {
	inner Copier
}

func (p *progressCopier) Copy(ctx context.Context, src, dst string, excludes []string) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Copying tree..."),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := p.inner.Copy(ctx, src, dst, excludes)
	close(done)
	bar.Finish()
	return err
}
