// Package probe runs startup checks before the server accepts requests.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout bounds a probe that sets no Timeout of its own.
const DefaultTimeout = 10 * time.Second

// CheckFunc returns nil when the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check. A failing critical probe stops startup;
// any other failure is only reported.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
	Timeout  time.Duration
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Run executes the probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)

		start := time.Now()
		err := p.Check(pctx)
		cancel()

		results[i] = Result{Probe: p, Error: err, Duration: time.Since(start)}
	}
	return results
}

// Analyze logs every result and joins the errors of failed critical probes.
func Analyze(results []Result) error {
	var critical []error
	for _, r := range results {
		d := r.Duration.Round(time.Millisecond)
		switch {
		case r.Error == nil:
			slog.Info("Startup check passed", "check", r.Probe.Name, "duration", d)
		case r.Probe.Critical:
			slog.Error("Startup check failed", "check", r.Probe.Name, "duration", d, "error", r.Error)
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		default:
			slog.Warn("Startup check failed, continuing", "check", r.Probe.Name, "duration", d, "error", r.Error)
		}
	}
	return errors.Join(critical...)
}

// ProfileChecker reports whether a model is configured for a profile.
type ProfileChecker interface {
	HasProfile(name string) bool
}

// Profiles returns a check that fails when any of the named profiles has no model.
func Profiles(p ProfileChecker, names ...string) CheckFunc {
	return func(ctx context.Context) error {
		var missing []string
		for _, n := range names {
			if !p.HasProfile(n) {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("no model configured for profiles %v", missing)
		}
		return nil
	}
}

// WritableDir returns a check that creates dir if needed and writes a scratch file into it.
func WritableDir(dir string) CheckFunc {
	return func(ctx context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		f.Close()
		return os.Remove(filepath.Clean(name))
	}
}
