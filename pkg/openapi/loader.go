package openapi

import (
	"context"
	"encoding/json"
	"net/url"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec marks documents that fail the minimal structural checks
var ErrInvalidSpec = errors.New("invalid OpenAPI spec")

// Document is a decoded OpenAPI 3.0 document together with the declaration
// order of its mappings. References are kept as written and never resolved.
type Document struct {
	*openapi3.T
	order keyOrder
}

// NewDocument wraps a programmatically built document. Without source text
// there is no declaration order, so map iteration falls back to lexical order.
func NewDocument(t *openapi3.T) *Document {
	return &Document{T: t}
}

// LoadDocument loads an OpenAPI document from a local file path or an HTTP(S) URL
func LoadDocument(input string) (*Document, error) {
	data, err := readInput(input)
	if err != nil {
		return nil, err
	}
	doc, err := LoadData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", input)
	}
	return doc, nil
}

// LoadData decodes a JSON or YAML OpenAPI document
func LoadData(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse spec")
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, errors.Wrap(ErrInvalidSpec, "document is empty")
	}

	order := keyOrder{}
	order.record(&root, nil)

	value, err := nodeValue(root.Content[0])
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert spec to JSON")
	}

	var t openapi3.T
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errors.Wrap(err, "failed to decode OpenAPI document")
	}
	return &Document{T: &t, order: order}, nil
}

// ValidateStructure performs the minimal checks the parser relies on:
// the openapi version, info.title and paths must be present.
func ValidateStructure(doc *Document) error {
	if doc == nil || doc.T == nil {
		return errors.Wrap(ErrInvalidSpec, "document is empty")
	}
	if doc.OpenAPI == "" {
		return errors.Wrap(ErrInvalidSpec, `missing "openapi" field`)
	}
	if doc.Info == nil || doc.Info.Title == "" {
		return errors.Wrap(ErrInvalidSpec, `missing "info.title" field`)
	}
	if doc.Paths == nil {
		return errors.Wrap(ErrInvalidSpec, `missing "paths" field`)
	}
	return nil
}

// ValidateDocument validates an OpenAPI document against the full OpenAPI 3
// rules, resolving every reference.
func ValidateDocument(input string) error {
	loader := &openapi3.Loader{Context: context.Background(), IsExternalRefsAllowed: true}
	var (
		doc *openapi3.T
		err error
	)
	if u, ok := remoteURL(input); ok {
		doc, err = loader.LoadFromURI(u)
	} else {
		doc, err = loader.LoadFromFile(input)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", input)
	}
	return doc.Validate(loader.Context)
}

func readInput(input string) ([]byte, error) {
	if u, ok := remoteURL(input); ok {
		data, err := openapi3.DefaultReadFromURI(openapi3.NewLoader(), u)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch %s", input)
		}
		return data, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", input)
	}
	return data, nil
}

func remoteURL(input string) (*url.URL, bool) {
	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, false
	}
	return u, true
}

// stringFields are decoded as text even when YAML reads them as numbers,
// e.g. "version: 1.0".
var stringFields = map[string]struct{}{
	"openapi":     {},
	"version":     {},
	"title":       {},
	"summary":     {},
	"description": {},
	"operationId": {},
	"url":         {},
	"$ref":        {},
}

// nodeValue converts a YAML node into JSON-compatible values. Mapping keys
// are always strings, so unquoted response codes such as 200 survive.
func nodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return nodeValue(node.Content[0])
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		entries := mappingEntries(node)
		m := make(map[string]any, len(entries))
		for _, e := range entries {
			key, valueNode := e.key, e.value
			if _, ok := stringFields[key]; ok && valueNode.Kind == yaml.ScalarNode && valueNode.ShortTag() != "!!null" {
				m[key] = valueNode.Value
				continue
			}
			v, err := nodeValue(valueNode)
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := nodeValue(child)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.ScalarNode:
		return scalarValue(node)
	}
	return nil, errors.Errorf("unsupported YAML node at line %d", node.Line)
}

type mappingEntry struct {
	key   string
	value *yaml.Node
}

// mappingEntries lists the key/value pairs of a mapping with YAML merge keys
// ("<<: *anchor") expanded in place. Keys the mapping declares itself win
// over merged ones, and earlier merge sources win over later ones.
func mappingEntries(node *yaml.Node) []mappingEntry {
	explicit := make(map[string]struct{}, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if !isMergeKey(node.Content[i]) {
			explicit[node.Content[i].Value] = struct{}{}
		}
	}

	out := make([]mappingEntry, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)
	add := func(key string, value *yaml.Node) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, mappingEntry{key: key, value: value})
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if !isMergeKey(keyNode) {
			add(keyNode.Value, valueNode)
			continue
		}
		for _, src := range mergeSources(valueNode) {
			for _, e := range mappingEntries(src) {
				if _, ok := explicit[e.key]; ok {
					continue
				}
				add(e.key, e.value)
			}
		}
	}
	return out
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!merge"
}

// mergeSources resolves the value of a merge key: a mapping, an alias to
// one, or a sequence of those
func mergeSources(node *yaml.Node) []*yaml.Node {
	if node.Kind == yaml.AliasNode {
		if node.Alias == nil {
			return nil
		}
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{node}
	case yaml.SequenceNode:
		var out []*yaml.Node
		for _, child := range node.Content {
			out = append(out, mergeSources(child)...)
		}
		return out
	}
	return nil
}

func scalarValue(node *yaml.Node) (any, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!int":
		var v int64
		if err := node.Decode(&v); err != nil {
			// out of int64 range; keep the literal digits
			return json.Number(node.Value), nil
		}
		return v, nil
	case "!!bool", "!!float":
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "invalid scalar at line %d", node.Line)
		}
		return v, nil
	default:
		return node.Value, nil
	}
}
