package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"
)

// Template names rendered by the generators.
const (
	Caption  = "caption.tmpl"
	Story    = "story.tmpl"
	Hashtags = "hashtags.tmpl"
)

//go:embed templates
var embedded embed.FS

// Manager handles loading and rendering of prompt templates.
// Templates under common/ are partials available to every other template.
type Manager struct {
	root *template.Template
}

// NewManager loads the built-in templates, then any *.tmpl files in overrideDir
// that replace or add to them. An empty overrideDir uses the built-ins only.
func NewManager(overrideDir string) (*Manager, error) {
	base, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}

	sources := []fs.FS{base}
	if overrideDir != "" {
		if _, err := os.Stat(overrideDir); err != nil {
			return nil, fmt.Errorf("prompt directory: %w", err)
		}
		sources = append(sources, os.DirFS(overrideDir))
	}
	return newManager(sources...)
}

func newManager(sources ...fs.FS) (*Manager, error) {
	m := &Manager{}
	m.root = template.New("root").Funcs(template.FuncMap{
		"orNA": orNAFunc,
	})

	for _, src := range sources {
		if err := m.loadCommon(src); err != nil {
			return nil, fmt.Errorf("loading common templates: %w", err)
		}
		if err := m.loadTemplates(src); err != nil {
			return nil, fmt.Errorf("loading templates: %w", err)
		}
	}
	return m, nil
}

func (m *Manager) loadCommon(fsys fs.FS) error {
	return fs.WalkDir(fsys, "common", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "common" && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if _, err = m.root.Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		return nil
	})
}

func (m *Manager) loadTemplates(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" || strings.HasPrefix(p, "common/") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if _, err = m.root.New(p).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		return nil
	})
}

// Render executes the named template with the provided data.
func (m *Manager) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.root.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// orNAFunc substitutes "N/A" for an empty value.
func orNAFunc(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
