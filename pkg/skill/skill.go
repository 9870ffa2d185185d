// Package skill reads back a generated skill bundle.
package skill

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// FileName is the entry document of every skill
const FileName = "SKILL.md"

// Bundle summarizes a skill directory
type Bundle struct {
	Dir         string
	Name        string
	Description string
	// Title is the first level-one heading of SKILL.md
	Title string

	Resources         int
	Operations        int
	SchemaGroups      int
	Schemas           int
	HasAuthentication bool
}

// Load parses dir/SKILL.md and counts the reference documents below dir
func Load(dir string) (*Bundle, error) {
	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))
	pctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(content), parser.WithContext(pctx))

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse frontmatter")
	}
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}
	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)
	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	b := &Bundle{
		Dir:         dir,
		Name:        name,
		Description: description,
		Title:       firstHeading(root, content),
	}

	fsys := os.DirFS(dir)
	counts := []struct {
		pattern string
		n       *int
	}{
		{"references/resources/*.md", &b.Resources},
		{"references/operations/*.md", &b.Operations},
		{"references/schemas/*/_index.md", &b.SchemaGroups},
		{"references/schemas/*/*.md", &b.Schemas},
	}
	for _, c := range counts {
		matches, err := doublestar.Glob(fsys, c.pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list %s", c.pattern)
		}
		*c.n = len(matches)
	}
	b.Schemas -= b.SchemaGroups

	if _, err := fs.Stat(fsys, path.Join("references", "authentication.md")); err == nil {
		b.HasAuthentication = true
	}
	return b, nil
}

func firstHeading(root ast.Node, source []byte) string {
	var title string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		title = buf.String()
		return ast.WalkStop, nil
	})
	return title
}
