package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var order []string
	probes := []Probe{
		{Name: "ok", Check: func(ctx context.Context) error { order = append(order, "ok"); return nil }},
		{Name: "fails", Check: func(ctx context.Context) error { order = append(order, "fails"); return errors.New("minor") }},
		{
			Name:    "slow",
			Timeout: 20 * time.Millisecond,
			Check: func(ctx context.Context) error {
				order = append(order, "slow")
				<-ctx.Done()
				return ctx.Err()
			},
		},
	}

	results := Run(context.Background(), probes)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"ok", "fails", "slow"}, order)
	assert.NoError(t, results[0].Error)
	assert.EqualError(t, results[1].Error, "minor")
	assert.ErrorIs(t, results[2].Error, context.DeadlineExceeded)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{name: "all pass", results: []Result{{Probe: Probe{Name: "a", Critical: true}}}},
		{name: "critical failure", results: []Result{{Probe: Probe{Name: "a", Critical: true}, Error: errors.New("x")}}, wantErr: true},
		{name: "non-critical failure", results: []Result{{Probe: Probe{Name: "a"}, Error: errors.New("x")}}},
		{name: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Analyze(tt.results)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "a: x")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "nested")
	require.NoError(t, WritableDir(dir)(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file is removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	assert.Error(t, WritableDir(filepath.Join(blocker, "sub"))(context.Background()))
}

type profileSet map[string]bool

func (p profileSet) HasProfile(name string) bool { return p[name] }

func TestProfiles(t *testing.T) {
	p := profileSet{"caption": true, "story": true}

	assert.NoError(t, Profiles(p, "caption", "story")(context.Background()))

	err := Profiles(p, "caption", "story", "hashtags")(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hashtags")
	assert.NotContains(t, err.Error(), "caption")
}
