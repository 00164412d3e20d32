// ABOUTME: Structural validation of configuration values against a schema.
// ABOUTME: Type and bound checks only; business semantics are the plugin's problem.

package admin

import (
	"fmt"
	"strings"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// validateConfig checks that value is structurally assignable to the schema.
// Absent fields are fine; unknown fields are preserved, not rejected.
func validateConfig(root *schema.Node, config map[string]interface{}) []string {
	var errs []string
	if root == nil {
		return nil
	}
	validateNode(root, config, "", &errs)
	return errs
}

func validateNode(node *schema.Node, value interface{}, path string, errs *[]string) {
	if value == nil {
		return
	}

	switch schema.Classify(node) {
	case schema.ShapeObject:
		m, ok := value.(map[string]interface{})
		if !ok {
			report(errs, path, "expected an object")
			return
		}
		for _, name := range node.OrderedProperties() {
			if v, present := m[name]; present {
				validateNode(node.Properties[name], v, childPath(path, name), errs)
			}
		}

	case schema.ShapeScalar, schema.ShapeFileReference:
		if _, ok := value.(string); !ok {
			report(errs, path, "expected a string")
		}

	case schema.ShapeBoolean:
		if _, ok := value.(bool); !ok {
			report(errs, path, "expected a boolean")
		}

	case schema.ShapeNumber:
		n, ok := asNumber(value)
		if !ok {
			report(errs, path, "expected a number")
			return
		}
		if node.Type == "integer" && n != float64(int64(n)) {
			report(errs, path, "expected an integer")
		}
		if node.Minimum != nil && n < *node.Minimum {
			report(errs, path, fmt.Sprintf("must be at least %v", *node.Minimum))
		}
		if node.Maximum != nil && n > *node.Maximum {
			report(errs, path, fmt.Sprintf("must be at most %v", *node.Maximum))
		}

	case schema.ShapeEnum:
		s, ok := value.(string)
		if !ok {
			report(errs, path, "expected a string")
			return
		}
		if !allowedValue(node.Enum, s) {
			report(errs, path, fmt.Sprintf("%q is not an allowed value", s))
		}

	case schema.ShapePlainArray:
		list, ok := value.([]interface{})
		if !ok {
			report(errs, path, "expected a list")
			return
		}
		if node.MaxItems != nil && len(list) > *node.MaxItems {
			report(errs, path, fmt.Sprintf("at most %d items allowed", *node.MaxItems))
		}

	case schema.ShapeCheckboxGroup:
		list, ok := value.([]interface{})
		if !ok {
			report(errs, path, "expected a list")
			return
		}
		allowed := node.Items.Enum
		for _, v := range list {
			s, ok := v.(string)
			if !ok || !allowedValue(allowed, s) {
				report(errs, path, fmt.Sprintf("%v is not an allowed selection", v))
			}
		}

	case schema.ShapeArrayOfObjects:
		list, ok := value.([]interface{})
		if !ok {
			report(errs, path, "expected a list")
			return
		}
		if node.MaxItems != nil && len(list) > *node.MaxItems {
			report(errs, path, fmt.Sprintf("at most %d items allowed", *node.MaxItems))
		}
		for i, item := range list {
			validateNode(node.Items, item, fmt.Sprintf("%s[%d]", path, i), errs)
		}

	case schema.ShapeKeyedObjects, schema.ShapeDynamicMap:
		m, ok := value.(map[string]interface{})
		if !ok {
			report(errs, path, "expected an object")
			return
		}
		if node.MaxProperties != nil && len(m) > *node.MaxProperties {
			report(errs, path, fmt.Sprintf("at most %d entries allowed", *node.MaxProperties))
		}
		child := valueSchema(node)
		if child == nil {
			return
		}
		for key, v := range m {
			validateNode(child, v, childPath(path, key), errs)
		}
	}
	// Fallback and custom-fragment nodes accept any value.
}

// copySecrets carries secret-marked values from old into fresh, in place.
// Used by config reset with preserve_secrets.
func copySecrets(node *schema.Node, old, fresh map[string]interface{}) {
	for _, path := range secretPaths(node, "") {
		if v, ok := lookupPath(old, path); ok {
			storePath(fresh, path, v)
		}
	}
}

func secretPaths(node *schema.Node, prefix string) []string {
	if node == nil {
		return nil
	}
	var paths []string
	if node.Secret && prefix != "" {
		paths = append(paths, prefix)
	}
	for name, child := range node.Properties {
		paths = append(paths, secretPaths(child, childPath(prefix, name))...)
	}
	return paths
}

func lookupPath(m map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		m, ok = v.(map[string]interface{})
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

func storePath(m map[string]interface{}, path string, value interface{}) {
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := m[part].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			m[part] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
}

// valueSchema picks the schema for map entry values, from either
// patternProperties or an object-typed additionalProperties.
func valueSchema(node *schema.Node) *schema.Node {
	for _, child := range node.PatternProperties {
		return child
	}
	if node.AdditionalProperties != nil {
		return node.AdditionalProperties.Schema
	}
	return nil
}

func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func report(errs *[]string, path, msg string) {
	if path == "" {
		path = "config"
	}
	*errs = append(*errs, fmt.Sprintf("%s: %s", path, msg))
}

func allowedValue(enum []interface{}, s string) bool {
	for _, v := range enum {
		if fmt.Sprint(v) == s {
			return true
		}
	}
	return false
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
