package metadata

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// GPSInfoKey holds the nested GPS tag table in the raw tag map.
const GPSInfoKey = "GPSInfo"

// IFD offsets are container plumbing, not photo metadata.
// The last three are the names imagemeta uses for the same pointers.
var skippedTags = map[string]bool{
	string(exif.ExifIFDPointer):             true,
	string(exif.GPSInfoIFDPointer):          true,
	string(exif.InteroperabilityIFDPointer): true,
	"ExifOffset":                            true,
	"GPSInfo":                               true,
	"InteropOffset":                         true,
}

type tagTable struct {
	tags map[string]any
	gps  map[string]any
}

func newTagTable() *tagTable {
	return &tagTable{tags: make(map[string]any), gps: make(map[string]any)}
}

func (t *tagTable) set(name string, value any) {
	if strings.HasPrefix(name, "GPS") {
		t.gps[name] = value
		return
	}
	t.tags[name] = value
}

// result folds the GPS block into the top-level table.
func (t *tagTable) result() map[string]any {
	if len(t.gps) > 0 {
		t.tags[GPSInfoKey] = t.gps
	}
	return t.tags
}

// Walk implements exif.Walker.
func (t *tagTable) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if skippedTags[string(name)] {
		return nil
	}
	t.set(string(name), tiffValue(tag))
	return nil
}

// readGoexif decodes the EXIF block of a JPEG or TIFF file.
// goexif only ever sees a block that passed checkIFDs.
func readGoexif(data []byte) (tags map[string]any, err error) {
	blob, err := tiffBlob(data)
	if err != nil {
		return nil, err
	}
	if err := checkIFDs(blob); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("goexif: %v", r)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(blob))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}

	table := newTagTable()
	if err := x.Walk(table); err != nil {
		return nil, err
	}
	return table.result(), nil
}

func tiffValue(tag *tiff.Tag) any {
	n := int(tag.Count)

	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil
		}
		return cleanText(s)
	case tiff.UndefVal:
		return cleanText(string(tag.Val))
	case tiff.RatVal:
		vals := make([]any, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			if den == 0 {
				vals = append(vals, nil)
				continue
			}
			vals = append(vals, float64(num)/float64(den))
		}
		return collapse(vals)
	case tiff.IntVal:
		vals := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				break
			}
			vals = append(vals, strconv.FormatInt(v, 10))
		}
		return collapse(vals)
	case tiff.FloatVal:
		vals := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Float(i)
			if err != nil {
				break
			}
			vals = append(vals, finite(v))
		}
		return collapse(vals)
	}
	return tag.String()
}
