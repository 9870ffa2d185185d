package parser

import (
	"fmt"
	"strings"

	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/blimu-dev/skill-gen/pkg/utils"
	"github.com/getkin/kin-openapi/openapi3"
)

// enumPreview is the number of enum values shown in a display type
const enumPreview = 3

// buildSchemaGroups groups component schemas by name prefix. Groups keep
// first-seen order and schemas keep declaration order.
func buildSchemaGroups(doc *openapi.Document) []ir.SchemaGroupDocument {
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil
	}
	schemas := doc.Components.Schemas
	index := map[string]int{}
	var groups []ir.SchemaGroupDocument
	for _, name := range openapi.OrderedKeys(doc, schemas, "components", "schemas") {
		prefix := utils.ExtractSchemaPrefix(name)
		i, ok := index[prefix]
		if !ok {
			i = len(groups)
			index[prefix] = i
			groups = append(groups, ir.SchemaGroupDocument{Prefix: prefix})
		}
		s := resolveSchema(doc, name, schemas[name], []string{"components", "schemas", name})
		groups[i].Schemas = append(groups[i].Schemas, s)
	}
	return groups
}

// classifySchema picks the schema kind by fixed precedence:
// enum, allOf, oneOf, anyOf, array, object, primitive.
func classifySchema(s *openapi3.Schema) ir.SchemaType {
	switch {
	case len(s.Enum) > 0:
		return ir.SchemaTypeEnum
	case len(s.AllOf) > 0:
		return ir.SchemaTypeAllOf
	case len(s.OneOf) > 0:
		return ir.SchemaTypeOneOf
	case len(s.AnyOf) > 0:
		return ir.SchemaTypeAnyOf
	case hasType(s, openapi3.TypeArray):
		return ir.SchemaTypeArray
	case hasType(s, openapi3.TypeObject) || s.Properties != nil:
		return ir.SchemaTypeObject
	default:
		return ir.SchemaTypePrimitive
	}
}

func hasType(s *openapi3.Schema, typ string) bool {
	return s != nil && s.Type != nil && s.Type.Is(typ)
}

// resolveSchema converts one schema node. A reference is not followed; it
// becomes an object stub naming its target.
func resolveSchema(doc *openapi.Document, name string, sr *openapi3.SchemaRef, pointer []string) ir.SchemaDocument {
	if sr != nil && sr.Ref != "" {
		return ir.SchemaDocument{
			Name:        name,
			Type:        ir.SchemaTypeObject,
			Description: "Reference: " + sr.Ref,
		}
	}
	if sr == nil || sr.Value == nil {
		return ir.SchemaDocument{Name: name, Type: ir.SchemaTypePrimitive}
	}

	s := sr.Value
	out := ir.SchemaDocument{
		Name:        name,
		Type:        classifySchema(s),
		Description: s.Description,
	}
	switch out.Type {
	case ir.SchemaTypeObject:
		if len(s.Properties) > 0 {
			out.Fields = buildFields(doc, s, pointer, true)
		}
	case ir.SchemaTypeEnum:
		out.EnumValues = append([]any(nil), s.Enum...)
	case ir.SchemaTypeAllOf:
		out.Composition = compositionMembers(doc, s.AllOf, openapi.Child(pointer, "allOf"))
	case ir.SchemaTypeOneOf:
		out.Composition = compositionMembers(doc, s.OneOf, openapi.Child(pointer, "oneOf"))
	case ir.SchemaTypeAnyOf:
		out.Composition = compositionMembers(doc, s.AnyOf, openapi.Child(pointer, "anyOf"))
	case ir.SchemaTypeArray:
		out.Items = schemaRef(doc, s.Items, openapi.Child(pointer, "items"))
	}
	return out
}

func compositionMembers(doc *openapi.Document, members openapi3.SchemaRefs, pointer []string) []ir.SchemaRefDocument {
	out := make([]ir.SchemaRefDocument, 0, len(members))
	for i, m := range members {
		if ref := schemaRef(doc, m, openapi.Child(pointer, openapi.Index(i))); ref != nil {
			out = append(out, *ref)
		}
	}
	return out
}

// buildFields lists the properties of an object schema. With expand set,
// inline object properties (and arrays of inline objects) get one level of
// nested fields; the nested fields themselves are never expanded.
func buildFields(doc *openapi.Document, s *openapi3.Schema, pointer []string, expand bool) []ir.FieldDocument {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	propsPointer := openapi.Child(pointer, "properties")
	fields := make([]ir.FieldDocument, 0, len(s.Properties))
	for _, name := range openapi.OrderedKeys(doc, s.Properties, propsPointer...) {
		fields = append(fields, buildField(doc, name, s.Properties[name], required[name], openapi.Child(propsPointer, name), expand))
	}
	return fields
}

func buildField(doc *openapi.Document, name string, pr *openapi3.SchemaRef, required bool, pointer []string, expand bool) ir.FieldDocument {
	f := ir.FieldDocument{
		Name:     name,
		Type:     displayType(pr),
		Required: required,
	}
	if pr == nil {
		return f
	}
	if pr.Ref != "" {
		f.Schema = &ir.SchemaRefDocument{Ref: utils.RefName(pr.Ref)}
		return f
	}
	v := pr.Value
	if v == nil {
		return f
	}
	f.Description = v.Description

	var items *openapi3.Schema
	if hasType(v, openapi3.TypeArray) && v.Items != nil {
		if v.Items.Ref != "" {
			f.Schema = &ir.SchemaRefDocument{Ref: utils.RefName(v.Items.Ref) + "[]"}
		} else {
			items = v.Items.Value
		}
	}
	if !expand {
		return f
	}
	switch {
	case hasType(v, openapi3.TypeObject) && len(v.Properties) > 0:
		f.NestedFields = buildFields(doc, v, pointer, false)
	case hasType(items, openapi3.TypeObject) && len(items.Properties) > 0:
		f.NestedFields = buildFields(doc, items, openapi.Child(pointer, "items"), false)
	}
	return f
}

// schemaRef builds the reference-or-inline form used by fields, parameters,
// bodies and responses. It returns nil for a missing schema.
func schemaRef(doc *openapi.Document, sr *openapi3.SchemaRef, pointer []string) *ir.SchemaRefDocument {
	if sr == nil {
		return nil
	}
	if sr.Ref != "" {
		return &ir.SchemaRefDocument{Ref: utils.RefName(sr.Ref)}
	}
	if v := sr.Value; hasType(v, openapi3.TypeArray) && v.Items != nil && v.Items.Ref != "" {
		return &ir.SchemaRefDocument{Ref: utils.RefName(v.Items.Ref) + "[]"}
	}
	inline := resolveSchema(doc, ir.InlineSchemaName, sr, pointer)
	return &ir.SchemaRefDocument{Inline: &inline}
}

// displayType renders the short type label shown in tables,
// e.g. "string (date-time)", "Pet[]" or "enum: a, b, c...".
func displayType(sr *openapi3.SchemaRef) string {
	if sr == nil {
		return "any"
	}
	if sr.Ref != "" {
		return utils.RefName(sr.Ref)
	}
	s := sr.Value
	if s == nil {
		return "any"
	}
	if len(s.Enum) > 0 {
		n := min(len(s.Enum), enumPreview)
		values := make([]string, 0, n)
		for _, v := range s.Enum[:n] {
			values = append(values, enumString(v))
		}
		label := "enum: " + strings.Join(values, ", ")
		if len(s.Enum) > enumPreview {
			label += "..."
		}
		return label
	}
	if hasType(s, openapi3.TypeArray) && s.Items != nil {
		if s.Items.Ref != "" {
			return utils.RefName(s.Items.Ref) + "[]"
		}
		return typeName(s.Items.Value) + "[]"
	}
	name := typeName(s)
	if s.Format != "" {
		name += " (" + s.Format + ")"
	}
	return name
}

func typeName(s *openapi3.Schema) string {
	if s == nil || s.Type == nil || len(*s.Type) == 0 {
		return "any"
	}
	return strings.Join(*s.Type, "|")
}

func enumString(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
