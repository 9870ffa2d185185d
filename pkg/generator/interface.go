package generator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/skill-gen/pkg/config"
	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/logger"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/blimu-dev/skill-gen/pkg/parser"
	"github.com/blimu-dev/skill-gen/pkg/renderer"
	"github.com/blimu-dev/skill-gen/pkg/writer"
)

// DefaultConcurrency bounds how many skills of one config are generated at once
const DefaultConcurrency = 4

// GenerateOptions contains options for skill generation
type GenerateOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string
	// OnlySkill generates only the named skill from config (optional)
	OnlySkill string
	Fallback  FallbackOptions
}

// FallbackOptions describes a single skill when no config file is provided
type FallbackOptions struct {
	Spec      string
	OutDir    string
	Templates string
	Skill     config.Skill
}

// ConvertOptions controls a single parse and write run
type ConvertOptions struct {
	OutDir string
	Skill  config.Skill
	// Force removes an existing skill directory instead of failing
	Force bool
}

// Service provides high-level skill generation functionality
type Service struct {
	renderer    renderer.Renderer
	writer      writer.Writer
	force       bool
	concurrency int
}

// Option configures a Service
type Option func(*Service)

// WithRenderer replaces the template renderer. When unset, a renderer is
// built per run from the configured templates directory.
func WithRenderer(r renderer.Renderer) Option {
	return func(s *Service) {
		s.renderer = r
	}
}

// WithWriter replaces the file system writer
func WithWriter(w writer.Writer) Option {
	return func(s *Service) {
		s.writer = w
	}
}

// WithForce overwrites existing skill directories in config runs
func WithForce(force bool) Option {
	return func(s *Service) {
		s.force = force
	}
}

// WithConcurrency bounds parallel skill generation
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a new generator service writing to the local disk
func NewService(opts ...Option) *Service {
	s := &Service{
		writer:      writer.FileSystem{},
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate generates skills based on the provided options
func (s *Service) Generate(ctx context.Context, opts GenerateOptions) ([]*Summary, error) {
	var cfg *config.Config
	var err error

	if opts.ConfigPath == "" {
		if opts.Fallback.Spec == "" {
			return nil, errors.New("either config path or a spec must be provided")
		}
		outDir := opts.Fallback.OutDir
		if outDir == "" {
			outDir = config.DefaultOutDir
		}
		cfg = &config.Config{
			Spec:      opts.Fallback.Spec,
			OutDir:    outDir,
			Templates: opts.Fallback.Templates,
			Skills:    []config.Skill{opts.Fallback.Skill},
		}
	} else {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	return s.GenerateFromConfig(ctx, cfg, opts.OnlySkill)
}

// GenerateFromConfig loads the spec once and generates every configured
// skill concurrently. With onlySkill set, only the skill with that name is
// generated.
func (s *Service) GenerateFromConfig(ctx context.Context, cfg *config.Config, onlySkill string) ([]*Summary, error) {
	skills := cfg.Skills
	if onlySkill != "" {
		skill, ok := cfg.FindSkill(onlySkill)
		if !ok {
			return nil, fmt.Errorf("skill %q not found in config", onlySkill)
		}
		skills = []config.Skill{skill}
	}

	doc, err := LoadSpec(ctx, cfg.Spec)
	if err != nil {
		return nil, err
	}

	r, err := s.rendererFor(cfg.Templates)
	if err != nil {
		return nil, err
	}

	// parse up front so that name clashes fail before anything is written
	docs := make([]*ir.SkillDocument, len(skills))
	owners := map[string]int{}
	for i, skill := range skills {
		opts, err := skill.ParserOptions()
		if err != nil {
			return nil, fmt.Errorf("skills[%d]: %w", i, err)
		}
		docs[i] = parser.Parse(doc, opts)
		name := docs[i].Meta.Name
		if j, dup := owners[name]; dup {
			return nil, fmt.Errorf("skills[%d] and skills[%d] both generate %q", j, i, name)
		}
		owners[name] = i
	}

	summaries := make([]*Summary, len(skills))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range skills {
		g.Go(func() error {
			skillCtx := logger.WithField(gctx, "skill", docs[i].Meta.Name)
			summary, err := s.write(skillCtx, r, docs[i], cfg.OutDir, skills[i], s.force)
			if err != nil {
				return errors.Wrapf(err, "failed to generate skill %s", docs[i].Meta.Name)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Convert parses doc with the skill's options and writes the bundle
func (s *Service) Convert(ctx context.Context, doc *openapi.Document, opts ConvertOptions) (*Summary, error) {
	parserOpts, err := opts.Skill.ParserOptions()
	if err != nil {
		return nil, err
	}
	r, err := s.rendererFor("")
	if err != nil {
		return nil, err
	}
	skillDoc := parser.Parse(doc, parserOpts)
	return s.write(ctx, r, skillDoc, opts.OutDir, opts.Skill, opts.Force)
}

// Write renders an already parsed document under outDir
func (s *Service) Write(ctx context.Context, doc *ir.SkillDocument, outDir string, excludeFiles ...string) (*Summary, error) {
	r, err := s.rendererFor("")
	if err != nil {
		return nil, err
	}
	return newLayout(r, s.writer, filepath.Join(outDir, doc.Meta.Name), config.Skill{ExcludeFiles: excludeFiles}).write(ctx, doc)
}

func (s *Service) write(ctx context.Context, r renderer.Renderer, doc *ir.SkillDocument, outDir string, skill config.Skill, force bool) (*Summary, error) {
	skillDir := filepath.Join(outDir, doc.Meta.Name)
	if err := s.prepare(ctx, skillDir, force); err != nil {
		return nil, err
	}
	return newLayout(r, s.writer, skillDir, skill).write(ctx, doc)
}

// prepare refuses to overwrite an existing skill directory unless forced
func (s *Service) prepare(ctx context.Context, skillDir string, force bool) error {
	cleaner, ok := s.writer.(writer.Cleaner)
	if !ok {
		return nil
	}
	exists, err := cleaner.Exists(skillDir)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if !force {
		return fmt.Errorf("output directory %s already exists (use --force to overwrite)", skillDir)
	}
	logger.G(ctx).WithField("dir", skillDir).Info("removing existing skill directory")
	return cleaner.RemoveAll(skillDir)
}

func (s *Service) rendererFor(templates string) (renderer.Renderer, error) {
	if s.renderer != nil {
		return s.renderer, nil
	}
	var opts []renderer.Option
	if templates != "" {
		opts = append(opts, renderer.WithTemplateDir(templates))
	}
	return renderer.New(opts...)
}

// LoadSpec loads an OpenAPI document and runs the structural checks the
// parser relies on
func LoadSpec(ctx context.Context, input string) (*openapi.Document, error) {
	logger.G(ctx).WithField("spec", input).Debug("loading spec")
	doc, err := openapi.LoadDocument(input)
	if err != nil {
		return nil, err
	}
	if err := openapi.ValidateStructure(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
