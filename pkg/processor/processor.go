// Package processor turns one stored upload into a PhotoRecord.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"i2cgo/pkg/model"
)

// MetadataExtractor reads metadata from an image file.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) model.Metadata
}

// Captioner describes an image file.
type Captioner interface {
	Caption(ctx context.Context, path string, md model.Metadata) string
}

// Processor runs extraction and captioning for one photo.
type Processor struct {
	extractor MetadataExtractor
	captioner Captioner
}

// New creates a Processor.
func New(e MetadataExtractor, c Captioner) *Processor {
	return &Processor{extractor: e, captioner: c}
}

// Process extracts metadata, then captions the photo with it.
// Only an unreadable path is an error; everything else degrades to defaults.
func (p *Processor) Process(ctx context.Context, path string) (model.PhotoRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.PhotoRecord{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return model.PhotoRecord{}, fmt.Errorf("%s is a directory", path)
	}

	start := time.Now()
	md := p.extractor.Extract(ctx, path)
	caption := p.captioner.Caption(ctx, path, md)

	slog.Info("Processed image", "file", filepath.Base(path), "bytes", info.Size(), "duration", time.Since(start))

	return model.PhotoRecord{
		ImagePath: path,
		Metadata:  md,
		Caption:   caption,
	}, nil
}
