// Package skillgen converts OpenAPI 3.0 specifications into Agent Skill
// bundles: a SKILL.md entry document plus Markdown reference files for
// every resource, operation, schema and authentication scheme.
//
// Quick Start:
//
//	import "github.com/blimu-dev/skill-gen"
//
//	// Write ./skills/pet-store-api/...
//	summary, err := skillgen.Convert(ctx, "./openapi.yaml", "./skills")
//
// For more advanced usage, see the generator and parser packages.
package skillgen

import (
	"context"

	"github.com/blimu-dev/skill-gen/pkg/generator"
	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/blimu-dev/skill-gen/pkg/parser"
)

// Convert generates a single skill from a spec file or HTTP(S) URL.
// An existing skill directory is an error.
//
// Example:
//
//	summary, err := skillgen.Convert(ctx, "./openapi.yaml", "./skills")
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Printf("wrote %d files to %s", len(summary.Files), summary.SkillDir)
func Convert(ctx context.Context, spec, outDir string) (*generator.Summary, error) {
	return generator.ConvertFile(ctx, spec, outDir, false)
}

// GenerateSkill generates skills with full configuration options.
//
// Example:
//
//	_, err := skillgen.GenerateSkill(ctx, skillgen.GenerateSkillOptions{
//		Spec:        "./openapi.yaml",
//		OutDir:      "./skills",
//		Name:        "store",
//		IncludeTags: []string{"orders", "store"},
//		Force:       true,
//	})
func GenerateSkill(ctx context.Context, opts GenerateSkillOptions) ([]*generator.Summary, error) {
	return generator.GenerateSkill(ctx, opts)
}

// GenerateSkillOptions contains options for skill generation
type GenerateSkillOptions = generator.GenerateSkillOptions

// GenerateFromConfig generates every skill listed in a YAML configuration
// file. Optionally, a single skill name restricts the run to that skill.
//
// Example:
//
//	// Generate all skills from config
//	_, err := skillgen.GenerateFromConfig(ctx, "./skill-gen.yaml")
//
//	// Generate only a specific skill
//	_, err = skillgen.GenerateFromConfig(ctx, "./skill-gen.yaml", "admin")
func GenerateFromConfig(ctx context.Context, configPath string, onlySkill ...string) ([]*generator.Summary, error) {
	return generator.GenerateFromConfig(ctx, configPath, onlySkill...)
}

// Parse builds the skill document of an already decoded spec without
// touching the file system.
func Parse(data []byte, opts parser.Options) (*ir.SkillDocument, error) {
	doc, err := openapi.LoadData(data)
	if err != nil {
		return nil, err
	}
	return parser.Parse(doc, opts), nil
}

// ValidateSpec runs the full OpenAPI 3 validation on a spec file or URL.
// Generation itself only needs the openapi, info.title and paths fields.
//
// Example:
//
//	if err := skillgen.ValidateSpec("./openapi.yaml"); err != nil {
//		log.Fatalf("Invalid OpenAPI spec: %v", err)
//	}
func ValidateSpec(specPath string) error {
	return generator.ValidateSpec(specPath)
}
