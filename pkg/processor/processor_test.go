package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i2cgo/pkg/model"
)

type fakeExtractor struct {
	md    model.Metadata
	paths []string
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) model.Metadata {
	f.paths = append(f.paths, path)
	return f.md
}

type fakeCaptioner struct {
	seen model.Metadata
}

func (f *fakeCaptioner) Caption(ctx context.Context, path string, md model.Metadata) string {
	f.seen = md
	return "caption of " + filepath.Base(path)
}

func TestProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	md := model.Metadata{Labeled: model.Labeled{DateTime: "2023:05:01 10:00:00"}}
	ex := &fakeExtractor{md: md}
	cp := &fakeCaptioner{}

	rec, err := New(ex, cp).Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, rec.ImagePath)
	assert.Equal(t, "caption of a.jpg", rec.Caption)
	assert.Equal(t, md, rec.Metadata)
	assert.Equal(t, md, cp.seen, "captioner receives the extracted metadata")
	assert.Equal(t, []string{path}, ex.paths)
}

func TestProcess_Errors(t *testing.T) {
	dir := t.TempDir()
	p := New(&fakeExtractor{}, &fakeCaptioner{})

	_, err := p.Process(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = p.Process(context.Background(), dir)
	assert.Error(t, err)
}
