// ABOUTME: Dotted-path navigation over a schema document.
// ABOUTME: Resolves paths like news.custom_feeds[2].url to their schema node.

package schema

import "strings"

// Resolve descends path through the schema and returns the node it addresses,
// or nil when no node matches. Each dotted segment is looked up in properties
// first; segments with no static entry fall back to the single
// patternProperties schema, then to an object-typed additionalProperties
// schema. A bracketed index descends into the array's items schema.
func Resolve(root *Node, path string) *Node {
	if root == nil || path == "" {
		return root
	}

	node := root
	for _, seg := range strings.Split(path, ".") {
		name, indexed := splitIndex(seg)
		node = childNode(node, name)
		if node == nil {
			return nil
		}
		for i := 0; i < indexed; i++ {
			if node.Items == nil {
				return nil
			}
			node = node.Items
		}
	}
	return node
}

// childNode resolves one property name against a node.
func childNode(n *Node, name string) *Node {
	if n == nil {
		return nil
	}
	if child, ok := n.Properties[name]; ok {
		return child
	}
	if len(n.PatternProperties) == 1 {
		for _, child := range n.PatternProperties {
			return child
		}
	}
	if n.AdditionalProperties != nil && n.AdditionalProperties.Schema != nil &&
		n.AdditionalProperties.Schema.Type == "object" {
		return n.AdditionalProperties.Schema
	}
	return nil
}

// splitIndex strips trailing [n] markers from a path segment, returning the
// bare name and how many levels of array descent they request.
func splitIndex(seg string) (string, int) {
	count := 0
	for {
		open := strings.LastIndex(seg, "[")
		if open < 0 || !strings.HasSuffix(seg, "]") {
			return seg, count
		}
		seg = seg[:open]
		count++
	}
}
