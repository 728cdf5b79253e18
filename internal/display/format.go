package display

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable size using 1024-based units with the
// labels B, KB, MB, GB, TB. Byte counts below 1 KB print as integers
// ("512 B"); everything else prints with one decimal ("1.5 KB"). Values of
// 1024 TB and above stay in TB rather than rolling to a larger unit.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + FormatBytes(-bytes)
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	suffixes := []string{"KB", "MB", "GB", "TB"}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < len(suffixes)-1; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatBytesWithSign prefixes the size with + or - for delta display
// (e.g. "+1.5 MB" for space saved, "-2.0 KB" for growth).
func FormatBytesWithSign(bytes int64) string {
	if bytes > 0 {
		return "+" + FormatBytes(bytes)
	}
	return FormatBytes(bytes)
}

// FormatPercent renders the saved fraction of before as a signed percentage
// with one decimal ("+25.0%", "-3.2%"). When before is zero the ratio is
// undefined and "n/a" is returned instead of a division result.
func FormatPercent(saved, before int64) string {
	if before == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", float64(saved)/float64(before)*100)
}

// FormatCount renders a file count with thousands separators ("12,408").
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
