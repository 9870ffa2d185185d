package openapi

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// keyOrder records the declaration order of mapping keys, indexed by the
// location of the mapping in the source document.
type keyOrder map[string][]string

const pointerSep = "\x00"

func pointerKey(pointer []string) string {
	return strings.Join(pointer, pointerSep)
}

// record walks a YAML node tree and stores the key order of every mapping
func (o keyOrder) record(node *yaml.Node, pointer []string) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			o.record(child, pointer)
		}
	case yaml.MappingNode:
		entries := mappingEntries(node)
		keys := make([]string, 0, len(entries))
		for _, e := range entries {
			keys = append(keys, e.key)
			o.record(e.value, appendPointer(pointer, e.key))
		}
		o[pointerKey(pointer)] = keys
	case yaml.SequenceNode:
		for i, child := range node.Content {
			o.record(child, appendPointer(pointer, strconv.Itoa(i)))
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			o.record(node.Alias, pointer)
		}
	}
}

// appendPointer returns a new pointer; it never aliases the parent slice
func appendPointer(pointer []string, segments ...string) []string {
	out := make([]string, 0, len(pointer)+len(segments))
	out = append(out, pointer...)
	return append(out, segments...)
}

// OrderedKeys returns the keys of m in source declaration order. Keys whose
// order is unknown (programmatic documents, resolved references) follow in
// lexical order.
func OrderedKeys[V any](doc *Document, m map[string]V, pointer ...string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	if doc != nil && doc.order != nil {
		for _, k := range doc.order[pointerKey(pointer)] {
			if _, ok := m[k]; !ok {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	rest := make([]string, 0, len(m)-len(out))
	for k := range m {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Keys returns the declared keys of the mapping at pointer, or nil when the
// document carries no order information for it.
func (d *Document) Keys(pointer ...string) []string {
	if d == nil || d.order == nil {
		return nil
	}
	keys, ok := d.order[pointerKey(pointer)]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Child extends a document pointer with more segments
func Child(pointer []string, segments ...string) []string {
	return appendPointer(pointer, segments...)
}

// Index formats a sequence index as a pointer segment
func Index(i int) string {
	return strconv.Itoa(i)
}
