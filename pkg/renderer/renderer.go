// Package renderer turns skill IR nodes into Markdown documents using
// text/template. Templates are looked up in an optional custom directory
// first and fall back to the embedded defaults.
package renderer

import (
	"bytes"
	"embed"
	"io/fs"
	"os"

	"github.com/pkg/errors"

	"github.com/blimu-dev/skill-gen/pkg/ir"
)

//go:embed templates/*
var templatesFS embed.FS

// Template names
const (
	SkillTemplate          = "skill.md.tmpl"
	ResourceTemplate       = "resource.md.tmpl"
	OperationTemplate      = "operation.md.tmpl"
	SchemaTemplate         = "schema.md.tmpl"
	SchemaIndexTemplate    = "schema-index.md.tmpl"
	AuthenticationTemplate = "authentication.md.tmpl"
)

// Renderer maps each IR node kind to a document
type Renderer interface {
	RenderSkill(doc *ir.SkillDocument) (string, error)
	RenderResource(res ir.ResourceDocument) (string, error)
	RenderOperation(op ir.OperationDocument) (string, error)
	RenderSchema(schema ir.SchemaDocument) (string, error)
	RenderSchemaIndex(group ir.SchemaGroupDocument) (string, error)
	RenderAuthentication(schemes []ir.AuthSchemeDocument) (string, error)
}

// DefaultTemplates returns the embedded template set
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// SkillData is the data passed to the SKILL.md template
type SkillData struct {
	*ir.SkillDocument
	TotalOps     int
	TotalSchemas int
}

// AuthenticationData is the data passed to the authentication template
type AuthenticationData struct {
	Schemes []ir.AuthSchemeDocument
}

// TemplateRenderer renders documents from an ordered list of template sources
type TemplateRenderer struct {
	sources []TemplateSource
}

var _ Renderer = (*TemplateRenderer)(nil)

type options struct {
	templateDir string
	defaults    fs.FS
}

// Option configures a TemplateRenderer
type Option func(*options)

// WithTemplateDir sets a directory whose templates override the defaults.
// Templates missing from it fall back to the defaults.
func WithTemplateDir(dir string) Option {
	return func(o *options) {
		o.templateDir = dir
	}
}

// WithDefaults replaces the embedded default templates
func WithDefaults(fsys fs.FS) Option {
	return func(o *options) {
		o.defaults = fsys
	}
}

// New creates a TemplateRenderer
func New(opts ...Option) (*TemplateRenderer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaults == nil {
		o.defaults = DefaultTemplates()
	}

	funcs := FuncMap()
	var sources []TemplateSource
	if o.templateDir != "" {
		info, err := os.Stat(o.templateDir)
		if err != nil || !info.IsDir() {
			return nil, errors.Errorf("custom templates directory not found: %s", o.templateDir)
		}
		sources = append(sources, NewFSSource(os.DirFS(o.templateDir), funcs))
	}
	sources = append(sources, NewFSSource(o.defaults, funcs))
	return NewWithSources(sources...), nil
}

// NewWithSources creates a renderer querying sources in order
func NewWithSources(sources ...TemplateSource) *TemplateRenderer {
	return &TemplateRenderer{sources: sources}
}

func (r *TemplateRenderer) render(name string, data any) (string, error) {
	for _, src := range r.sources {
		if !src.HasTemplate(name) {
			continue
		}
		var buf bytes.Buffer
		if err := src.Render(&buf, name, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", errors.Errorf("template %s not found", name)
}

// RenderSkill renders SKILL.md
func (r *TemplateRenderer) RenderSkill(doc *ir.SkillDocument) (string, error) {
	data := SkillData{SkillDocument: doc}
	for _, res := range doc.Resources {
		data.TotalOps += len(res.Operations)
	}
	for _, g := range doc.SchemaGroups {
		data.TotalSchemas += len(g.Schemas)
	}
	return r.render(SkillTemplate, data)
}

// RenderResource renders a resource index
func (r *TemplateRenderer) RenderResource(res ir.ResourceDocument) (string, error) {
	return r.render(ResourceTemplate, res)
}

// RenderOperation renders an operation page
func (r *TemplateRenderer) RenderOperation(op ir.OperationDocument) (string, error) {
	return r.render(OperationTemplate, op)
}

// RenderSchema renders a schema page
func (r *TemplateRenderer) RenderSchema(schema ir.SchemaDocument) (string, error) {
	return r.render(SchemaTemplate, schema)
}

// RenderSchemaIndex renders the index of a schema group
func (r *TemplateRenderer) RenderSchemaIndex(group ir.SchemaGroupDocument) (string, error) {
	return r.render(SchemaIndexTemplate, group)
}

// RenderAuthentication renders the authentication page
func (r *TemplateRenderer) RenderAuthentication(schemes []ir.AuthSchemeDocument) (string, error) {
	return r.render(AuthenticationTemplate, AuthenticationData{Schemes: schemes})
}
