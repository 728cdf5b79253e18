// Package usage implements the read-only disk usage inspector behind the
// usage subcommand and the source/destination comparison line at the end of
// an optimize run. It counts regular files only, so a listing taken before
// and after a run compares the same population the optimizer worked on.
package usage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one row of a usage listing: a path and the regular-file count and
// byte total beneath it.
type Entry struct {
	Path  string
	Files int
	Bytes int64
}

// Listing is a grouped breakdown of one root directory. Entries are sorted
// by descending byte total, ties broken by path, so repeated runs over the
// same tree print identically. Files sitting directly in the root are
// grouped under ".".
type Listing struct {
	Root    string
	Total   Entry
	Entries []Entry
}

// Scan walks root and returns its grand total. It is the single-number form
// used for the end-of-run comparison between source and destination trees.
func Scan(root string) (Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Entry{}, fmt.Errorf("usage: %w", err)
	}
	if !info.IsDir() {
		return Entry{}, fmt.Errorf("usage: %q is not a directory", root)
	}

	total := Entry{Path: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total.Files++
		total.Bytes += fi.Size()
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return total, nil
}

// List walks root and groups every regular file under its ancestor directory
// at most depth levels below the root. A depth below 1 is treated as 1.
func List(root string, depth int) (Listing, error) {
	if depth < 1 {
		depth = 1
	}
	info, err := os.Stat(root)
	if err != nil {
		return Listing{}, fmt.Errorf("usage: %w", err)
	}
	if !info.IsDir() {
		return Listing{}, fmt.Errorf("usage: %q is not a directory", root)
	}

	groups := make(map[string]*Entry)
	listing := Listing{Root: root, Total: Entry{Path: root}}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		key := groupKey(filepath.ToSlash(rel), depth)
		entry := groups[key]
		if entry == nil {
			entry = &Entry{Path: key}
			groups[key] = entry
		}
		entry.Files++
		entry.Bytes += fi.Size()
		listing.Total.Files++
		listing.Total.Bytes += fi.Size()
		return nil
	})
	if err != nil {
		return Listing{}, err
	}

	for _, entry := range groups {
		listing.Entries = append(listing.Entries, *entry)
	}
	sort.Slice(listing.Entries, func(i, j int) bool {
		a, b := listing.Entries[i], listing.Entries[j]
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return a.Path < b.Path
	})
	return listing, nil
}

// groupKey maps a slash-form relative file path onto its listing row: the
// leading directory components truncated at depth, or "." for files that
// have no directory above them inside the root.
func groupKey(rel string, depth int) string {
	parts := strings.Split(rel, "/")
	dirs := parts[:len(parts)-1]
	if len(dirs) == 0 {
		return "."
	}
	if len(dirs) > depth {
		dirs = dirs[:depth]
	}
	return strings.Join(dirs, "/")
}
