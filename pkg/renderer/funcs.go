package renderer

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/utils"
)

// FuncMap returns the template functions available to every template:
// sprig plus the skill helpers.
func FuncMap() template.FuncMap {
	funcMap := sprig.TxtFuncMap()
	for k, v := range (template.FuncMap{
		"fileName":     utils.ToFileName,
		"schemaPrefix": utils.ExtractSchemaPrefix,
		"refName":      refName,
		"schemaLink":   schemaLink,
		"refLink":      refLink,
		"fieldType":    fieldType,
		"anchor":       anchor,
		"cell":         cell,
		"enumValue":    enumValue,
		"yamlString":   yamlString,
	}) {
		funcMap[k] = v
	}
	return funcMap
}

// refName drops the [] suffix of a reference to an array of schemas
func refName(ref string) string {
	return strings.TrimSuffix(ref, "[]")
}

// schemaLink returns the relative path of a schema page from a document
// depth directories below references/.
func schemaLink(depth int, ref string) string {
	name := refName(ref)
	return strings.Repeat("../", depth) + "schemas/" + utils.ToFileName(utils.ExtractSchemaPrefix(name)) + "/" + utils.ToFileName(name) + ".md"
}

// refLink renders a schema reference as a Markdown link, or the inline type
func refLink(depth int, r *ir.SchemaRefDocument) string {
	switch {
	case r == nil:
		return ""
	case r.IsRef():
		return fmt.Sprintf("[`%s`](%s)", r.Ref, schemaLink(depth, r.Ref))
	case r.Inline != nil:
		return fmt.Sprintf("`inline %s`", r.Inline.Type)
	}
	return ""
}

// fieldType renders a field type, linked when it points at a named schema
func fieldType(depth int, f ir.FieldDocument) string {
	label := "`" + cell(f.Type) + "`"
	if f.Schema != nil && f.Schema.IsRef() {
		return fmt.Sprintf("[%s](%s)", label, schemaLink(depth, f.Schema.Ref))
	}
	return label
}

// anchor converts a heading to its GitHub style fragment
func anchor(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}
	return b.String()
}

// cell makes text safe for a single Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

func enumValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

// yamlString quotes s as a YAML scalar when needed
func yamlString(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}
