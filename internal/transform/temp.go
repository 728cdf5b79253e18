package transform

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempPrefix marks in-progress transform output. Discovery skips basenames
// carrying it, so a destination tree left behind by an interrupted run
// cannot feed stale artifacts into a later one.
const TempPrefix = ".mediaopt-tmp-"

// TempPath returns the sibling temp path for dst. The real basename is kept
// as the suffix so external encoders can infer the output format from the
// extension.
func TempPath(dst string) string {
	dir, base := filepath.Split(dst)
	return filepath.Join(dir, TempPrefix+base)
}

// replaceWithTemp runs write to produce a temp sibling of dst, then renames
// it over dst. On any failure the temp file is removed and dst keeps its
// current bytes, so a reader never sees a partially written file and a
// failed transform always leaves the copied original behind.
func replaceWithTemp(dst string, write func(tmp string) error) error {
	tmp := TempPath(dst)
	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	fi, err := os.Stat(tmp)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if fi.Size() == 0 {
		os.Remove(tmp)
		return fmt.Errorf("transform produced empty output for %q", dst)
	}
	return os.Rename(tmp, dst)
}
