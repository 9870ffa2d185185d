package renderer

import (
	"io"
	"io/fs"
	"sync"
	"text/template"

	"github.com/pkg/errors"
)

// partialsGlob matches shared template definitions. Every template of a
// source is parsed together with that source's partials.
const partialsGlob = "_*.tmpl"

// TemplateSource is anything that can tell whether it holds a template and
// render it by name.
type TemplateSource interface {
	HasTemplate(name string) bool
	Render(w io.Writer, name string, data any) error
}

// FSSource serves templates from a file system. Parsed templates are cached.
type FSSource struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

var _ TemplateSource = (*FSSource)(nil)

// NewFSSource creates a template source over fsys
func NewFSSource(fsys fs.FS, funcs template.FuncMap) *FSSource {
	if funcs == nil {
		funcs = FuncMap()
	}
	return &FSSource{
		fsys:  fsys,
		funcs: funcs,
		cache: map[string]*template.Template{},
	}
}

// HasTemplate implements TemplateSource
func (s *FSSource) HasTemplate(name string) bool {
	info, err := fs.Stat(s.fsys, name)
	return err == nil && !info.IsDir()
}

// Render implements TemplateSource
func (s *FSSource) Render(w io.Writer, name string, data any) error {
	tmpl, err := s.lookup(name)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return errors.Wrapf(err, "failed to execute template %s", name)
	}
	return nil
}

func (s *FSSource) lookup(name string) (*template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}

	content, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template %s", name)
	}
	tmpl, err := template.New(name).Funcs(s.funcs).Parse(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template %s", name)
	}

	partials, err := fs.Glob(s.fsys, partialsGlob)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list template partials")
	}
	for _, p := range partials {
		if p == name {
			continue
		}
		body, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %s", p)
		}
		if _, err := tmpl.New(p).Parse(string(body)); err != nil {
			return nil, errors.Wrapf(err, "failed to parse template %s", p)
		}
	}

	s.cache[name] = tmpl
	return tmpl, nil
}
