package story

import (
	"slices"
	"time"

	"i2cgo/pkg/model"
)

// dateLayouts are tried in order when parsing a capture timestamp.
var dateLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006:01:02",
}

// Undated is the time assigned to records without a parsable timestamp.
// It sorts before any real capture time.
var Undated = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// ParseDate parses a capture timestamp, returning Undated when no layout matches.
func ParseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return Undated
}

// SortRecords returns the records ordered by capture time, oldest first.
// Records with equal times keep their input order. The input is not modified.
func SortRecords(records []model.PhotoRecord) []model.PhotoRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.PhotoRecord) int {
		return ParseDate(a.Metadata.Labeled.DateTime).Compare(ParseDate(b.Metadata.Labeled.DateTime))
	})
	return sorted
}
