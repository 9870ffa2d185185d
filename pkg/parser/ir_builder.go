package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/blimu-dev/skill-gen/pkg/ir"
	"github.com/blimu-dev/skill-gen/pkg/openapi"
	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultResource collects operations without a usable grouping key
const DefaultResource = "default"

const jsonContentType = "application/json"

// apiPrefix strips one optional /api/ then one optional /v<digits>/ segment
var apiPrefix = regexp.MustCompile(`(?i)^/(api/)?(v\d+/)?`)

// methods lists the HTTP methods in iteration order
var methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

func pathOperations(item *openapi3.PathItem) []*openapi3.Operation {
	return []*openapi3.Operation{item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace}
}

// buildResources walks the path table and groups surviving operations
func buildResources(doc *openapi.Document, groupBy GroupBy, filter Filter) []ir.ResourceDocument {
	if doc.Paths == nil {
		return nil
	}
	tagDescriptions := map[string]string{}
	for _, t := range doc.Tags {
		if t != nil {
			tagDescriptions[t.Name] = t.Description
		}
	}

	byTag := map[string]*ir.ResourceDocument{}
	var order []string

	paths := doc.Paths.Map()
	for _, path := range openapi.OrderedKeys(doc, paths, "paths") {
		item := paths[path]
		if item == nil || isPathExcluded(path, filter) {
			continue
		}
		for i, op := range pathOperations(item) {
			if op == nil {
				continue
			}
			if filter.ExcludeDeprecated && op.Deprecated {
				continue
			}
			method := methods[i]
			for _, name := range resourceNames(path, op, groupBy) {
				if !isTagIncluded(name, filter) {
					continue
				}
				res, ok := byTag[name]
				if !ok {
					res = &ir.ResourceDocument{Tag: name, Description: tagDescriptions[name]}
					byTag[name] = res
					order = append(order, name)
				}
				pointer := []string{"paths", path, method}
				res.Operations = append(res.Operations, buildOperation(doc, path, method, name, op, pointer))
			}
		}
	}

	out := make([]ir.ResourceDocument, 0, len(order))
	for _, name := range order {
		out = append(out, *byTag[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Operations) > len(out[j].Operations)
	})
	return out
}

// resourceNames returns the grouping keys of one operation
func resourceNames(path string, op *openapi3.Operation, groupBy GroupBy) []string {
	switch groupBy {
	case GroupByTags:
		if len(op.Tags) > 0 {
			return op.Tags
		}
		return []string{DefaultResource}
	case GroupByPath:
		return []string{resourceFromPath(path)}
	default:
		if len(op.Tags) > 0 {
			return op.Tags
		}
		return []string{resourceFromPath(path)}
	}
}

// resourceFromPath derives a grouping key from the first meaningful segment
func resourceFromPath(path string) string {
	rest := apiPrefix.ReplaceAllString(path, "/")
	segment, _, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	if segment == "" || strings.HasPrefix(segment, "{") {
		return DefaultResource
	}
	return segment
}

// defaultOperationID mirrors the method and path, e.g. get--users-{id}
func defaultOperationID(method, path string) string {
	return strings.ToLower(method) + "-" + strings.ReplaceAll(path, "/", "-")
}

func buildOperation(doc *openapi.Document, path, method, tag string, op *openapi3.Operation, pointer []string) ir.OperationDocument {
	operationID := op.OperationID
	if operationID == "" {
		operationID = defaultOperationID(method, path)
	}
	return ir.OperationDocument{
		OperationID: operationID,
		Path:        path,
		Method:      strings.ToUpper(method),
		Tag:         tag,
		Summary:     op.Summary,
		Description: op.Description,
		Deprecated:  op.Deprecated,
		Parameters:  buildParameters(doc, op.Parameters, openapi.Child(pointer, "parameters")),
		RequestBody: buildRequestBody(doc, op.RequestBody, openapi.Child(pointer, "requestBody")),
		Responses:   buildResponses(doc, op.Responses, openapi.Child(pointer, "responses")),
		Security:    buildSecurity(doc, op.Security, openapi.Child(pointer, "security")),
	}
}

// buildParameters keeps concrete parameters; references are not supported
func buildParameters(doc *openapi.Document, params openapi3.Parameters, pointer []string) []ir.ParameterDocument {
	var out []ir.ParameterDocument
	for i, pr := range params {
		if pr == nil || pr.Ref != "" || pr.Value == nil {
			continue
		}
		p := pr.Value
		out = append(out, ir.ParameterDocument{
			Name:        p.Name,
			In:          p.In,
			Type:        displayType(p.Schema),
			Required:    p.Required,
			Description: p.Description,
			Schema:      schemaRef(doc, p.Schema, openapi.Child(pointer, openapi.Index(i), "schema")),
		})
	}
	return out
}

func buildRequestBody(doc *openapi.Document, body *openapi3.RequestBodyRef, pointer []string) *ir.RequestBodyDocument {
	if body == nil || body.Ref != "" || body.Value == nil {
		return nil
	}
	rb := body.Value
	contentPointer := openapi.Child(pointer, "content")
	contentTypes := openapi.OrderedKeys(doc, rb.Content, contentPointer...)

	out := &ir.RequestBodyDocument{
		Description:  rb.Description,
		Required:     rb.Required,
		ContentTypes: contentTypes,
	}
	if len(contentTypes) == 0 {
		return out
	}
	selected := contentTypes[0]
	if media := rb.Content[selected]; media != nil {
		out.Schema = schemaRef(doc, media.Schema, openapi.Child(contentPointer, selected, "schema"))
	}
	return out
}

func buildResponses(doc *openapi.Document, responses *openapi3.Responses, pointer []string) []ir.ResponseDocument {
	if responses == nil {
		return nil
	}
	m := responses.Map()
	var out []ir.ResponseDocument
	for _, status := range openapi.OrderedKeys(doc, m, pointer...) {
		rr := m[status]
		if rr == nil {
			continue
		}
		if rr.Ref != "" {
			out = append(out, ir.ResponseDocument{Status: status, Description: "(reference)"})
			continue
		}
		resp := ir.ResponseDocument{Status: status}
		if rr.Value != nil {
			if rr.Value.Description != nil {
				resp.Description = *rr.Value.Description
			}
			if media := rr.Value.Content[jsonContentType]; media != nil {
				resp.Schema = schemaRef(doc, media.Schema, openapi.Child(pointer, status, "content", jsonContentType, "schema"))
			}
		}
		out = append(out, resp)
	}
	return out
}

// buildSecurity flattens the requirement list into name/scopes pairs.
// Duplicates are kept and global security is not inherited.
func buildSecurity(doc *openapi.Document, security *openapi3.SecurityRequirements, pointer []string) []ir.SecurityRequirementDocument {
	if security == nil {
		return nil
	}
	var out []ir.SecurityRequirementDocument
	for i, req := range *security {
		for _, name := range openapi.OrderedKeys(doc, req, openapi.Child(pointer, openapi.Index(i))...) {
			scopes := make([]string, len(req[name]))
			copy(scopes, req[name])
			out = append(out, ir.SecurityRequirementDocument{Name: name, Scopes: scopes})
		}
	}
	return out
}
