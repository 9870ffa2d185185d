package generator

import (
	"context"
	"path/filepath"

	"github.com/blimu-dev/skill-gen/pkg/config"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
)

// GenerateSkill is a convenience function for generating skills with minimal configuration
func GenerateSkill(ctx context.Context, opts GenerateSkillOptions) ([]*Summary, error) {
	service := NewService(WithForce(opts.Force))

	genOpts := GenerateOptions{
		ConfigPath: opts.ConfigPath,
		OnlySkill:  opts.OnlySkill,
		Fallback: FallbackOptions{
			Spec:      opts.Spec,
			OutDir:    opts.OutDir,
			Templates: opts.Templates,
			Skill: config.Skill{
				Name:              opts.Name,
				GroupBy:           opts.GroupBy,
				IncludeTags:       opts.IncludeTags,
				ExcludeTags:       opts.ExcludeTags,
				ExcludeDeprecated: opts.ExcludeDeprecated,
			},
		},
	}

	return service.Generate(ctx, genOpts)
}

// GenerateSkillOptions contains options for the convenience GenerateSkill function
type GenerateSkillOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// OnlySkill generates only the named skill from config (optional)
	OnlySkill string

	// Fallback options when no config file is provided
	Spec              string   // OpenAPI spec file or URL
	OutDir            string   // Output directory
	Templates         string   // Custom templates directory
	Name              string   // Skill name override
	GroupBy           string   // tags, path or auto
	IncludeTags       []string // Tags to include
	ExcludeTags       []string // Tags to exclude
	ExcludeDeprecated bool
	Force             bool
}

// ConvertFile loads a spec from a file or URL and writes a single skill to outDir
func ConvertFile(ctx context.Context, spec, outDir string, force bool) (*Summary, error) {
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}

	doc, err := LoadSpec(ctx, spec)
	if err != nil {
		return nil, err
	}
	return NewService().Convert(ctx, doc, ConvertOptions{OutDir: absOutDir, Force: force})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(ctx context.Context, configPath string, onlySkill ...string) ([]*Summary, error) {
	service := NewService()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	only := ""
	if len(onlySkill) > 0 {
		only = onlySkill[0]
	}

	return service.GenerateFromConfig(ctx, cfg, only)
}

// ValidateSpec validates an OpenAPI specification against the OpenAPI 3 rules
func ValidateSpec(specPath string) error {
	return openapi.ValidateDocument(specPath)
}
