// Package parser turns an OpenAPI document into the skill IR.
//
// Parsing is pure: it performs no I/O, never fails on a structurally valid
// document and allocates a fresh tree on every call. Callers are expected to
// run openapi.ValidateStructure first.
package parser

import (
	"fmt"
	"strings"

	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/blimu-dev/skill-gen/pkg/utils"
)

// MaxDescriptionLength caps SkillMeta.Description
const MaxDescriptionLength = 200

// GroupBy selects how operations are assigned to resources
type GroupBy string

const (
	// GroupByTags groups by declared tags, "default" when untagged
	GroupByTags GroupBy = "tags"
	// GroupByPath groups by the first path segment after /api and /vN
	GroupByPath GroupBy = "path"
	// GroupByAuto uses tags when present and the path otherwise
	GroupByAuto GroupBy = "auto"
)

// ParseGroupBy validates a user supplied strategy. Empty means auto.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupByAuto, nil
	case GroupByTags, GroupByPath, GroupByAuto:
		return g, nil
	}
	return "", fmt.Errorf("unknown groupBy %q (expected tags, path or auto)", s)
}

// Options controls a single Parse call
type Options struct {
	// SkillName overrides the name derived from info.title
	SkillName string
	GroupBy   GroupBy
	Filter    Filter
}

// Validate reports option values Parse cannot honour
func (o Options) Validate() error {
	if o.GroupBy == "" {
		return nil
	}
	_, err := ParseGroupBy(string(o.GroupBy))
	return err
}

// Parse builds the skill document: meta, resources, schema groups and auth
// schemes, in that order.
func Parse(doc *openapi.Document, opts Options) *ir.SkillDocument {
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = GroupByAuto
	}
	return &ir.SkillDocument{
		Meta:         buildMeta(doc, opts.SkillName),
		Resources:    buildResources(doc, groupBy, opts.Filter),
		SchemaGroups: buildSchemaGroups(doc),
		AuthSchemes:  buildAuthSchemes(doc),
	}
}

func buildMeta(doc *openapi.Document, skillName string) ir.SkillMeta {
	meta := ir.SkillMeta{OpenAPIVersion: doc.OpenAPI}
	if info := doc.Info; info != nil {
		meta.Title = info.Title
		meta.Version = info.Version
		meta.Description = utils.FirstLine(info.Description, MaxDescriptionLength)
		if info.License != nil {
			meta.License = &ir.LicenseDocument{Name: info.License.Name, URL: info.License.URL}
		}
		if info.Contact != nil {
			meta.Contact = info.Contact.Email
		}
	}
	meta.Name = skillName
	if meta.Name == "" {
		meta.Name = utils.ToSkillName(meta.Title)
	}
	for _, s := range doc.Servers {
		if s != nil {
			meta.Servers = append(meta.Servers, ir.ServerDocument{URL: s.URL, Description: s.Description})
		}
	}
	if doc.Components != nil {
		meta.SecuritySchemes = openapi.OrderedKeys(doc, doc.Components.SecuritySchemes, "components", "securitySchemes")
	}
	return meta
}
