package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/skill-gen/pkg/parser"
)

// DefaultOutDir is used when outDir is not set
const DefaultOutDir = "./output"

// Config represents the complete configuration for skill generation
type Config struct {
	// Spec is a local path or an HTTP(S) URL
	Spec string `yaml:"spec"`
	// OutDir receives one directory per skill
	OutDir string `yaml:"outDir"`
	// Templates is an optional directory overriding the default templates
	Templates string  `yaml:"templates"`
	Skills    []Skill `yaml:"skills"`
}

// Skill configures one generated bundle. A single spec can produce several
// skills, e.g. a public one and an admin one.
type Skill struct {
	// Name overrides the name derived from info.title
	Name    string `yaml:"name"`
	GroupBy string `yaml:"groupBy"`

	IncludeTags       []string `yaml:"includeTags"`
	ExcludeTags       []string `yaml:"excludeTags"`
	ExcludeDeprecated bool     `yaml:"excludeDeprecated"`
	// ExcludePaths are exact-or-prefix path strings
	ExcludePaths []string `yaml:"excludePaths"`
	// ExcludePathRegex are regular expressions matched against path templates
	ExcludePathRegex []string `yaml:"excludePathRegex"`
	// ExcludePathGlobs are doublestar globs, e.g. /admin/**
	ExcludePathGlobs []string `yaml:"excludePathGlobs"`

	// ExcludeFiles is a list of file paths (relative to the skill directory)
	// that should not be written.
	// Example: ["references/authentication.md", "references/schemas/Other"]
	ExcludeFiles []string `yaml:"exclude"`
}

// Filter compiles the skill's path patterns into a parser filter
func (s Skill) Filter() (parser.Filter, error) {
	f := parser.Filter{
		IncludeTags:       s.IncludeTags,
		ExcludeTags:       s.ExcludeTags,
		ExcludeDeprecated: s.ExcludeDeprecated,
		ExcludePaths:      parser.PrefixPatterns(s.ExcludePaths...),
	}
	regexes, err := parser.RegexPatterns(s.ExcludePathRegex...)
	if err != nil {
		return parser.Filter{}, err
	}
	globs, err := parser.GlobPatterns(s.ExcludePathGlobs...)
	if err != nil {
		return parser.Filter{}, err
	}
	f.ExcludePaths = append(f.ExcludePaths, regexes...)
	f.ExcludePaths = append(f.ExcludePaths, globs...)
	return f, nil
}

// ParserOptions builds the options of a parser run for this skill
func (s Skill) ParserOptions() (parser.Options, error) {
	groupBy, err := parser.ParseGroupBy(s.GroupBy)
	if err != nil {
		return parser.Options{}, err
	}
	filter, err := s.Filter()
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{SkillName: s.Name, GroupBy: groupBy, Filter: filter}, nil
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// The comparison is done relative to skillDir.
func (s Skill) ShouldExcludeFile(skillDir, targetPath string) bool {
	if len(s.ExcludeFiles) == 0 {
		return false
	}

	relPath, err := filepath.Rel(skillDir, targetPath)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)
	if relPath == "." || strings.HasPrefix(relPath, "../") {
		return false
	}

	for _, excludePattern := range s.ExcludeFiles {
		normalizedExclude := strings.TrimSuffix(filepath.ToSlash(excludePattern), "/")
		if normalizedExclude == "" {
			continue
		}
		if relPath == normalizedExclude {
			return true
		}
		// "references/schemas" also excludes everything below it
		if strings.HasPrefix(relPath, normalizedExclude+"/") {
			return true
		}
	}
	return false
}

// Load loads configuration from a YAML file. Relative paths are resolved
// against the directory of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if cfg.Spec == "" {
		return nil, errors.New("config.spec is required")
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if len(cfg.Skills) == 0 {
		cfg.Skills = []Skill{{}}
	}

	for i := range cfg.Skills {
		s := &cfg.Skills[i]
		if _, err := parser.ParseGroupBy(s.GroupBy); err != nil {
			return nil, fmt.Errorf("skills[%d]: %w", i, err)
		}
		if _, err := s.Filter(); err != nil {
			return nil, fmt.Errorf("skills[%d]: %w", i, err)
		}
	}

	base := filepath.Dir(path)
	if !isURL(cfg.Spec) {
		cfg.Spec = resolve(base, cfg.Spec)
	}
	cfg.OutDir = resolve(base, cfg.OutDir)
	if cfg.Templates != "" {
		cfg.Templates = resolve(base, cfg.Templates)
	}
	return &cfg, nil
}

// FindSkill returns the skill with the given name override
func (c *Config) FindSkill(name string) (Skill, bool) {
	for _, s := range c.Skills {
		if s.Name == name {
			return s, true
		}
	}
	return Skill{}, false
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return filepath.Join(base, p)
	}
	return abs
}
