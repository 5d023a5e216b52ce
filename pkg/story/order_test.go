package story

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"i2cgo/pkg/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2023:05:01 10:00:00", time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2023-05-01 10:00:00", time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2023-05-01T10:00:00", time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2023:05:01", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"N/A", Undated},
		{"", Undated},
		{"yesterday", Undated},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(ParseDate(tt.in)), "got %v", ParseDate(tt.in))
		})
	}
}

func record(caption, date string) model.PhotoRecord {
	return model.PhotoRecord{Caption: caption, Metadata: model.Metadata{Labeled: model.Labeled{DateTime: date}}}
}

func captions(records []model.PhotoRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Caption
	}
	return out
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []model.PhotoRecord
		want    []string
	}{
		{
			name:    "all dated",
			records: []model.PhotoRecord{record("c", "2023:05:03 00:00:00"), record("a", "2023-05-01 08:00:00"), record("b", "2023:05:02")},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "undated first, stable",
			records: []model.PhotoRecord{record("dated", "2020:01:01 00:00:00"), record("na", "N/A"), record("missing", ""), record("junk", "soon")},
			want:    []string{"na", "missing", "junk", "dated"},
		},
		{
			name:    "none dated keeps input order",
			records: []model.PhotoRecord{record("x", ""), record("y", "N/A")},
			want:    []string{"x", "y"},
		},
		{
			name: "empty",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := captions(tt.records)
			assert.Equal(t, tt.want, captions(SortRecords(tt.records)))
			assert.Equal(t, in, captions(tt.records), "input must not be reordered")
		})
	}
}

func TestNewImageBlock(t *testing.T) {
	t.Run("no date field", func(t *testing.T) {
		b := newImageBlock(1, model.PhotoRecord{})
		assert.False(t, b.HasDateTime)
		assert.Equal(t, "N/A", b.Caption)
	})

	t.Run("unknown date renders sentinel", func(t *testing.T) {
		b := newImageBlock(2, record("c", model.DateTimeUnknown))
		assert.True(t, b.HasDateTime)
		assert.Equal(t, "1900-01-01 00:00:00", b.DateTime)
		assert.Equal(t, "N/A", b.Address)
		assert.Equal(t, "N/A", b.Country)
		assert.Equal(t, "N/A", b.City)
	})

	t.Run("located", func(t *testing.T) {
		r := record("c", "2023:05:01 10:00:00")
		r.Metadata.Location = model.Location{FullAddress: "주소", Country: "대한민국"}
		b := newImageBlock(3, r)
		assert.Equal(t, "2023-05-01 10:00:00", b.DateTime)
		assert.Equal(t, "주소", b.Address)
		assert.Equal(t, "대한민국", b.Country)
		assert.Empty(t, b.City)
	})
}
