package metadata

import (
	"io"

	"github.com/bep/imagemeta"
	"github.com/gabriel-vasile/mimetype"
)

var imageFormats = []struct {
	mime   string
	format imagemeta.ImageFormat
}{
	{"image/jpeg", imagemeta.JPEG},
	{"image/tiff", imagemeta.TIFF},
	{"image/png", imagemeta.PNG},
	{"image/vnd.mozilla.apng", imagemeta.PNG},
	{"image/webp", imagemeta.WebP},
	{"image/heic", imagemeta.HEIF},
	{"image/heic-sequence", imagemeta.HEIF},
	{"image/heif", imagemeta.HEIF},
	{"image/heif-sequence", imagemeta.HEIF},
	{"image/avif", imagemeta.AVIF},
}

// sniffFormat maps the file content to an imagemeta format.
// ImageFormatAuto means no tag reader handles the file.
func sniffFormat(data []byte) imagemeta.ImageFormat {
	m := mimetype.Detect(data)
	for _, f := range imageFormats {
		if m.Is(f.mime) {
			return f.format
		}
	}
	return imagemeta.ImageFormatAuto
}

// readImagemeta reads EXIF from any container imagemeta supports. Oversized
// counts and tags are skipped by its default limits.
func readImagemeta(r io.ReadSeeker, format imagemeta.ImageFormat) (map[string]any, error) {
	table := newTagTable()

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           r,
		ImageFormat: format,
		Sources:     imagemeta.EXIF,
		HandleTag: func(ti imagemeta.TagInfo) error {
			if skippedTags[ti.Tag] {
				return nil
			}
			table.set(ti.Tag, jsonValue(ti.Value))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return table.result(), nil
}
