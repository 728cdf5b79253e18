package inventory

import (
	"sort"

	"github.com/akrbdk/media-optimize-tools/internal/classify"
)

// CategoryTotals aggregates one category of tracked files. BytesBefore spans
// every tracked file; BytesAfter spans only measured ones, so the missing
// portion is carried separately instead of inflating savings.
type CategoryTotals struct {
	Count        int   // tracked files
	Missing      int   // files absent from the destination when measured
	BytesBefore  int64 // source bytes across all tracked files
	BytesAfter   int64 // destination bytes across measured files
	BytesMissing int64 // source bytes of files absent from the destination
}

// MeasuredBefore returns the source bytes of files that were actually found
// at the destination, the base for honest savings math.
func (t CategoryTotals) MeasuredBefore() int64 {
	return t.BytesBefore - t.BytesMissing
}

// BytesSaved returns the category delta. The identity
// BytesSaved == MeasuredBefore - BytesAfter holds exactly.
func (t CategoryTotals) BytesSaved() int64 {
	return t.MeasuredBefore() - t.BytesAfter
}

// Totals holds the per-category aggregates of one run.
type Totals struct {
	Images CategoryTotals
	Videos CategoryTotals
}

// Sum returns the grand total across both categories.
func (t Totals) Sum() CategoryTotals {
	return CategoryTotals{
		Count:        t.Images.Count + t.Videos.Count,
		Missing:      t.Images.Missing + t.Videos.Missing,
		BytesBefore:  t.Images.BytesBefore + t.Videos.BytesBefore,
		BytesAfter:   t.Images.BytesAfter + t.Videos.BytesAfter,
		BytesMissing: t.Images.BytesMissing + t.Videos.BytesMissing,
	}
}

// Aggregate folds the tracked-file table into totals. All report numbers
// come from this fold over the final table; no phase keeps running counters,
// so re-aggregating after any step always reproduces the same result.
func Aggregate(files []TrackedFile) Totals {
	var t Totals
	for i := range files {
		f := &files[i]

		var cat *CategoryTotals
		switch f.Category {
		case classify.CategoryImage:
			cat = &t.Images
		case classify.CategoryVideo:
			cat = &t.Videos
		default:
			continue
		}

		cat.Count++
		cat.BytesBefore += f.SizeBefore
		if !f.Measured {
			cat.Missing++
			cat.BytesMissing += f.SizeBefore
			continue
		}
		cat.BytesAfter += f.SizeAfter
	}
	return t
}

// TopSavings returns the measured files ordered by bytes saved, largest
// first, capped at max entries. The sort is stable: files that saved the
// same amount keep their table order, so runs over identical trees rank
// identically.
func TopSavings(files []TrackedFile, max int) []TrackedFile {
	ranked := make([]TrackedFile, 0, len(files))
	for _, f := range files {
		if f.Measured {
			ranked = append(ranked, f)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BytesSaved() > ranked[j].BytesSaved()
	})
	if max >= 0 && len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
