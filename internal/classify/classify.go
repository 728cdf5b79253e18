// Package classify maps file paths to media categories by extension.
// Classification is purely lexical: content sniffing is deliberately out of
// scope, so a misnamed file surfaces later as a per-file transform failure
// rather than being silently re-categorized.
package classify

import (
	"path/filepath"
	"strings"
)

// Category is the media category of a tracked file.
type Category int

const (
	// CategoryNone marks files that are neither images nor videos.
	CategoryNone Category = iota
	CategoryImage
	CategoryVideo
)

// String returns the lowercase category label used in logs and reports.
func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryVideo:
		return "video"
	default:
		return "other"
	}
}

// ImageKind is the concrete image format implied by the extension. It selects
// the parameter set (lossy quality vs. lossless compression level) and tells
// the native engine which codec to use.
type ImageKind int

const (
	ImageUnknown ImageKind = iota
	ImageJPEG
	ImagePNG
	ImageWebP
	ImageHEIC
)

// String returns the short format label (e.g. "jpeg", "png").
func (k ImageKind) String() string {
	switch k {
	case ImageJPEG:
		return "jpeg"
	case ImagePNG:
		return "png"
	case ImageWebP:
		return "webp"
	case ImageHEIC:
		return "heic"
	default:
		return "unknown"
	}
}

// Image extensions (lowercase, with leading dot).
var imageExtensions = map[string]ImageKind{
	".jpg":  ImageJPEG,
	".jpeg": ImageJPEG,
	".png":  ImagePNG,
	".webp": ImageWebP,
	".heic": ImageHEIC,
	".heif": ImageHEIC,
}

// Video extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".mpg":  true,
	".mpeg": true,
}

// Classify returns the category for a path based on its extension,
// case-insensitively. Paths without a recognized extension (including
// dotfiles like ".jpg" itself, whose extension is empty) are CategoryNone.
func Classify(path string) Category {
	ext := normalizeExt(path)
	if ext == "" {
		return CategoryNone
	}
	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if videoExtensions[ext] {
		return CategoryVideo
	}
	return CategoryNone
}

// KindOf returns the image format for a path, or ImageUnknown when the path
// is not a recognized image.
func KindOf(path string) ImageKind {
	ext := normalizeExt(path)
	if ext == "" {
		return ImageUnknown
	}
	return imageExtensions[ext]
}

// Lossless reports whether the path is an image stored in a lossless format,
// which selects the compression-level parameter instead of a quality value.
func Lossless(path string) bool {
	return KindOf(path) == ImagePNG
}

// normalizeExt lowercases the extension and rejects the degenerate case of a
// bare dotfile such as ".png", where the whole basename is the "extension".
func normalizeExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(ext)
}
