// Package metadata extracts capture time, coordinates and address from photos.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/bep/imagemeta"
	"github.com/paulmach/orb"

	"i2cgo/pkg/logging"
	"i2cgo/pkg/model"
	"i2cgo/pkg/tracker"
)

// Geocoder resolves a point to an address.
type Geocoder interface {
	Reverse(ctx context.Context, p orb.Point) (model.Location, error)
}

// GeocoderLabel is the tracker key for geocoding fallbacks.
const GeocoderLabel = "nominatim"

// Extractor reads photo metadata. It never fails: anything it cannot read
// is left at its default and logged.
type Extractor struct {
	geocoder Geocoder
	tracker  *tracker.Tracker
}

// NewExtractor creates an Extractor. A nil geocoder disables address lookup.
func NewExtractor(g Geocoder, t *tracker.Tracker) *Extractor {
	return &Extractor{geocoder: g, tracker: t}
}

// Extract reads the tag table, derives the labeled fields and resolves the address.
func (e *Extractor) Extract(ctx context.Context, path string) model.Metadata {
	raw, err := ReadTags(path)
	if err != nil {
		slog.Warn("Failed to read image tags", "path", path, "error", err)
		raw = map[string]any{}
	}

	md := model.Metadata{
		RawTags: raw,
		Labeled: Label(raw),
	}

	if p, ok := Point(md.Labeled); ok && e.geocoder != nil {
		loc, err := e.geocoder.Reverse(ctx, p)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				slog.Warn("Geocoding timed out", "path", path, "lat", p.Lat(), "lon", p.Lon())
			} else {
				slog.Error("Geocoding failed", "path", path, "lat", p.Lat(), "lon", p.Lon(), "error", err)
			}
			e.tracker.TrackFallback(GeocoderLabel)
		} else {
			md.Location = loc
		}
	}

	slog.Debug("Extracted metadata", "path", path, "tags", len(raw), "date", md.Labeled.DateTime, "located", !md.Location.IsZero())
	return md
}

// ReadTags returns the JSON-safe tag table of an image.
// JPEG and TIFF go through goexif first; everything else, and any block goexif
// cannot take, goes through imagemeta. A file without any tag block yields an
// empty table and no error.
func ReadTags(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	format := sniffFormat(data)
	if format == imagemeta.JPEG || format == imagemeta.TIFF {
		tags, err := readGoexif(data)
		if err == nil {
			return tags, nil
		}
		logging.Trace(slog.Default(), "goexif could not read image", "path", path, "error", err)
	}
	if format == imagemeta.ImageFormatAuto {
		logging.Trace(slog.Default(), "No tag reader for file", "path", path)
		return map[string]any{}, nil
	}

	tags, err := readImagemeta(bytes.NewReader(data), format)
	if err != nil {
		logging.Trace(slog.Default(), "imagemeta could not read image", "path", path, "format", format, "error", err)
		return map[string]any{}, nil
	}
	return tags, nil
}
