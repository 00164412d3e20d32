// ABOUTME: Schema helpers for plugin definitions.

package core

import "github.com/pixeldeck/pixeldeck/internal/schema"

// MustSchema parses a plugin's embedded schema document, panicking on error.
// Schemas ship with the binary; a malformed one is a build defect.
func MustSchema(doc string) *schema.Node {
	n, err := schema.Parse([]byte(doc))
	if err != nil {
		panic(err)
	}
	return n
}
