// Package mirror creates the destination tree as a byte-faithful copy of the
// source via rsync and guards the destination with an advisory lock for the
// duration of a run. Transforms never touch the source; everything after the
// copy happens inside the destination.
package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gofrs/flock"
)

// Copier mirrors src into dst. Implementations must reproduce the directory
// structure so every source file appears at the same relative path in dst.
type Copier interface {
	Copy(ctx context.Context, src, dst string, excludes []string) error
}

// RsyncCopier shells out to rsync in archive mode.
type RsyncCopier struct{}

// NewRsync returns the production copier.
func NewRsync() *RsyncCopier { return &RsyncCopier{} }

// Copy mirrors the tree. Exclude patterns are forwarded to rsync so excluded
// files never reach the destination instead of being copied and ignored.
func (*RsyncCopier) Copy(ctx context.Context, src, dst string, excludes []string) error {
	args := []string{"-a"}
	for _, pattern := range excludes {
		args = append(args, "--exclude", pattern)
	}
	// Trailing slash on src: copy its contents into dst itself.
	args = append(args, strings.TrimRight(src, "/")+"/", dst)

	cmd := exec.CommandContext(ctx, "rsync", args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderrBuf.String()); msg != "" {
			return fmt.Errorf("rsync: %w: %s", err, msg)
		}
		return fmt.Errorf("rsync: %w", err)
	}
	return nil
}

// ErrDestLocked is returned when another run already holds the destination
// lock.
var ErrDestLocked = errors.New("destination is locked by another optimize run")

// Lock is an advisory flock guarding one destination directory.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes a non-blocking lock on "<dest>.lock", a sibling of the
// destination rather than a file inside it, since the destination does not
// exist until the copy phase. A concurrent run against the same destination
// fails fast instead of interleaving transforms.
func AcquireLock(destDir string) (*Lock, error) {
	fl := flock.New(strings.TrimRight(destDir, "/") + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrDestLocked
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return err
	}
	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
