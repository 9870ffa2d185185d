package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/blimu-dev/skill-gen/pkg/config"
	"github.com/blimu-dev/skill-gen/pkg/generator"
	"github.com/blimu-dev/skill-gen/pkg/logger"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/blimu-dev/skill-gen/pkg/renderer"
	"github.com/blimu-dev/skill-gen/pkg/skill"
	"github.com/blimu-dev/skill-gen/pkg/writer"
)

// GenerateParams holds the flags of the generate command
type GenerateParams struct {
	Input      string
	ConfigPath string
	OnlySkill  string
	OutDir     string
	Templates  string

	Name              string
	GroupBy           string
	IncludeTags       []string
	ExcludeTags       []string
	ExcludeDeprecated bool
	ExcludePaths      []string
	ExcludePathRegex  []string
	ExcludePathGlobs  []string

	Force  bool
	Quiet  bool
	DryRun bool
}

// Skill returns the single-skill configuration described by the flags
func (p GenerateParams) Skill() config.Skill {
	return config.Skill{
		Name:              p.Name,
		GroupBy:           p.GroupBy,
		IncludeTags:       p.IncludeTags,
		ExcludeTags:       p.ExcludeTags,
		ExcludeDeprecated: p.ExcludeDeprecated,
		ExcludePaths:      p.ExcludePaths,
		ExcludePathRegex:  p.ExcludePathRegex,
		ExcludePathGlobs:  p.ExcludePathGlobs,
	}
}

// RunGenerate converts a spec, or every skill of a config file, into skill bundles
func RunGenerate(ctx context.Context, p GenerateParams, out *Presenter) error {
	if p.Input == "" && p.ConfigPath == "" {
		return errors.New("either an input spec or --config must be provided")
	}
	if p.Quiet {
		out.SetQuiet(true)
		if err := logger.SetLogLevel("error"); err != nil {
			return err
		}
	}

	var w writer.Writer = writer.FileSystem{}
	mem := writer.NewMemory()
	if p.DryRun {
		w = mem
	}
	opts := []generator.Option{generator.WithWriter(w), generator.WithForce(p.Force)}

	var summaries []*generator.Summary
	if p.ConfigPath != "" {
		cfg, err := config.Load(p.ConfigPath)
		if err != nil {
			return err
		}
		if p.Templates != "" {
			cfg.Templates = absPath(p.Templates)
		}
		if p.OutDir != "" {
			cfg.OutDir = absPath(p.OutDir)
		}
		out.Info(fmt.Sprintf("Reading OpenAPI spec: %s", cfg.Spec))
		summaries, err = generator.NewService(opts...).GenerateFromConfig(ctx, cfg, p.OnlySkill)
		if err != nil {
			return err
		}
	} else {
		summary, err := convert(ctx, p, opts, out)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	for _, s := range summaries {
		out.Success(fmt.Sprintf("Skill generated at: %s", s.SkillDir))
		out.Info(fmt.Sprintf("%d resources, %d operations, %d schema groups, %d schemas",
			s.Resources, s.Operations, s.SchemaGroups, s.Schemas))
		if len(s.Skipped) > 0 {
			out.Warning(fmt.Sprintf("skipped %d excluded files", len(s.Skipped)))
		}
	}
	if p.DryRun {
		out.Section("Dry run, nothing written")
		for _, f := range mem.Files() {
			out.Info(f)
		}
	}
	return nil
}

func convert(ctx context.Context, p GenerateParams, opts []generator.Option, out *Presenter) (*generator.Summary, error) {
	out.Info(fmt.Sprintf("Reading OpenAPI spec: %s", p.Input))
	doc, err := generator.LoadSpec(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	describe(doc, out)

	var rOpts []renderer.Option
	if p.Templates != "" {
		rOpts = append(rOpts, renderer.WithTemplateDir(p.Templates))
	}
	r, err := renderer.New(rOpts...)
	if err != nil {
		return nil, err
	}

	outDir := p.OutDir
	if outDir == "" {
		outDir = config.DefaultOutDir
	}
	out.Info("Converting to Agent Skill...")
	return generator.NewService(append(opts, generator.WithRenderer(r))...).Convert(ctx, doc, generator.ConvertOptions{
		OutDir: outDir,
		Skill:  p.Skill(),
		Force:  p.Force,
	})
}

func describe(doc *openapi.Document, out *Presenter) {
	out.Info(fmt.Sprintf("API: %s (v%s)", doc.Info.Title, doc.Info.Version))
	out.Info(fmt.Sprintf("OpenAPI version: %s", doc.OpenAPI))
	out.Info(fmt.Sprintf("Paths: %d", doc.Paths.Len()))

	tags := make([]string, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		if t != nil {
			tags = append(tags, t.Name)
		}
	}
	if len(tags) == 0 {
		out.Info("Tags: none")
	} else {
		out.Info("Tags: " + strings.Join(tags, ", "))
	}
	if doc.Components != nil && len(doc.Components.Schemas) > 0 {
		out.Info(fmt.Sprintf("Schemas: %d", len(doc.Components.Schemas)))
	}
}

// RunValidate checks a spec. Without strict only the fields the generator
// needs are checked; strict runs the full OpenAPI 3 validation.
func RunValidate(ctx context.Context, input string, strict bool, out *Presenter) error {
	if strict {
		if err := openapi.ValidateDocument(input); err != nil {
			return errors.Wrap(err, "validation failed")
		}
	} else if _, err := generator.LoadSpec(ctx, input); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("%s is valid", input))
	return nil
}

// RunInspect prints a summary of a generated skill directory
func RunInspect(dir string, out *Presenter) (*skill.Bundle, error) {
	b, err := skill.Load(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect %s", dir)
	}
	out.Section(b.Name)
	if b.Title != "" {
		out.Info("Title: " + b.Title)
	}
	out.Info("Description: " + b.Description)
	out.Info(fmt.Sprintf("Resources: %d", b.Resources))
	out.Info(fmt.Sprintf("Operations: %d", b.Operations))
	out.Info(fmt.Sprintf("Schemas: %d in %d groups", b.Schemas, b.SchemaGroups))
	if b.HasAuthentication {
		out.Info("Authentication: " + filepath.Join("references", "authentication.md"))
	}
	return b, nil
}
