// Package inventory builds and aggregates the tracked-file table that drives
// the transform and report phases. The table is captured once from the source
// tree before any mutation; every later phase works from it instead of
// re-walking directories.
package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
	"github.com/akrbdk/media-optimize-tools/internal/transform"
)

// TrackedFile is one media file captured at discovery time. RelPath is the
// slash-form path relative to the tree root and identifies the file in both
// trees; the destination copy lives at exactly the same relative path.
// SizeBefore is fixed at discovery. SizeAfter and Measured start zeroed and
// are set exactly once by the measure phase; a file that is absent from the
// destination stays unmeasured rather than being scored as fully saved.
type TrackedFile struct {
	RelPath    string
	Category   classify.Category
	SizeBefore int64
	SizeAfter  int64
	Measured   bool
}

// BytesSaved returns the per-file delta, negative when the file grew.
// Only meaningful once Measured is set.
func (f *TrackedFile) BytesSaved() int64 {
	return f.SizeBefore - f.SizeAfter
}

// BuildOptions narrows discovery to the selected categories and drops paths
// matching any exclude pattern.
type BuildOptions struct {
	Images  bool
	Videos  bool
	Exclude []string // doublestar patterns matched against slash-form relative paths
}

// Build walks root and returns the tracked-file table sorted by relative
// path, which fixes the processing and report order for the whole run. The
// walk is read-only. An unreadable root or walk error fails the build; a
// partial inventory would silently shrink the report.
func Build(root string, opts BuildOptions) ([]TrackedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %q is not a directory", root)
	}

	var files []TrackedFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), transform.TempPrefix) {
			// Leftover artifact from an interrupted run.
			return nil
		}

		cat := classify.Classify(path)
		if cat == classify.CategoryNone {
			return nil
		}
		if cat == classify.CategoryImage && !opts.Images {
			return nil
		}
		if cat == classify.CategoryVideo && !opts.Videos {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if excluded(rel, opts.Exclude) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, TrackedFile{
			RelPath:    rel,
			Category:   cat,
			SizeBefore: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
