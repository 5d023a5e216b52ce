package imageutil

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	require.NoError(t, png.Encode(f, img))
	return path
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h       int
		wantW, wtH int
	}{
		{512, 512, 512, 512},
		{300, 200, 300, 200},
		{1024, 512, 512, 256},
		{512, 2048, 128, 512},
		{4000, 3000, 512, 384},
		{513, 100, 512, 100},
		{10000, 1, 512, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wtH, h, "%dx%d", tt.w, tt.h)
	}
}

func TestPrepareForLLM_Downscales(t *testing.T) {
	path := createTestPNG(t, 1600, 1200, color.White)

	data, mime, err := PrepareForLLM(path)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	b := decodeJPEG(t, data).Bounds()
	assert.Equal(t, 512, b.Dx())
	assert.Equal(t, 384, b.Dy())
}

func TestPrepareForLLM_SmallImageNoUpscale(t *testing.T) {
	path := createTestPNG(t, 200, 100, color.White)

	data, _, err := PrepareForLLM(path)
	require.NoError(t, err)

	b := decodeJPEG(t, data).Bounds()
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 100, b.Dy())
}

func TestPrepareForLLM_FlattensAlphaOntoWhite(t *testing.T) {
	path := createTestPNG(t, 16, 16, color.NRGBA{0, 0, 0, 0})

	data, _, err := PrepareForLLM(path)
	require.NoError(t, err)

	r, g, b, _ := decodeJPEG(t, data).At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestPrepareForLLM_Errors(t *testing.T) {
	_, _, err := PrepareForLLM(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, _, err = PrepareForLLM(bad)
	assert.Error(t, err)
}

// pngHeader returns a PNG holding only an IHDR for a w x h RGBA image and IEND.
func pngHeader(w, h uint32) []byte {
	chunk := func(typ string, data []byte) []byte {
		body := append([]byte(typ), data...)
		out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		out = append(out, body...)
		return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(body))
	}

	ihdr := binary.BigEndian.AppendUint32(nil, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 6, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = append(out, chunk("IHDR", ihdr)...)
	return append(out, chunk("IEND", nil)...)
}

func TestPrepareForLLM_RejectsOversizedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bomb.png")
	require.NoError(t, os.WriteFile(path, pngHeader(60000, 60000), 0o644))

	_, _, err := PrepareForLLM(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge), "got %v", err)
}

func TestCheckDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"small", 640, 480, false},
		{"at limit", MaxPixels, 1, false},
		{"one over", MaxPixels + 1, 1, true},
		{"huge square", 60000, 60000, true},
		{"zero width", 0, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkDimensions(tt.w, tt.h)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
