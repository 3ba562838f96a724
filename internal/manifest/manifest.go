// Package manifest reads, edits, and writes Cargo-style TOML manifests.
//
// A manifest is modeled as a generic tree of tagged values (Document) so that
// content this tool does not understand round-trips untouched. Typed accessors
// cover only the paths the harness needs: package name, workspace declaration,
// dependency sections, and crate entry points.
package manifest

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file name looked for in every directory the
// harness inspects.
const FileName = "Cargo.toml"

// Document is a parsed manifest. Nested tables are map[string]any, arrays are
// []any; scalar values keep the types go-toml assigns them.
type Document map[string]any

// Parse decodes TOML bytes into a Document.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return doc, nil
}

// Encode serializes the document back to TOML.
func (d Document) Encode() ([]byte, error) {
	return toml.Marshal(map[string]any(d))
}

// Save serializes the full document and writes it in a single write, so a
// failed serialization never leaves a partially overwritten file behind.
func (d Document) Save(path string) error {
	data, err := d.Encode()
	if err != nil {
		return fmt.Errorf("cannot serialize %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Table walks a chain of nested tables and returns the table at the end of
// the path, or false if any step is missing or not a table.
func (d Document) Table(keys ...string) (map[string]any, bool) {
	cur := map[string]any(d)
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// EnsureTable walks a chain of nested tables, creating empty tables for
// missing steps. It fails if an existing value along the path is not a table,
// rather than clobbering it.
func (d Document) EnsureTable(keys ...string) (map[string]any, error) {
	cur := map[string]any(d)
	for i, k := range keys {
		v, present := cur[k]
		if !present {
			next := map[string]any{}
			cur[k] = next
			cur = next
			continue
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%v is not a table", keys[:i+1])
		}
		cur = next
	}
	return cur, nil
}

// String returns the string value at a dotted path of table keys.
func (d Document) String(keys ...string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	parent, ok := d.Table(keys[:len(keys)-1]...)
	if !ok {
		return "", false
	}
	s, ok := parent[keys[len(keys)-1]].(string)
	return s, ok
}

// PackageName returns package.name, or empty when absent.
func (d Document) PackageName() string {
	name, _ := d.String("package", "name")
	return name
}

// HasWorkspace reports whether the manifest declares a [workspace] section.
func (d Document) HasWorkspace() bool {
	_, ok := d["workspace"]
	return ok
}
