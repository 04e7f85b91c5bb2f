// Package category maps human-readable category names to provider category
// codes. The bundled table is overlaid by user config entries; lookups are
// case-insensitive because config-supplied keys arrive case-folded.
package category

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var bundled []byte

// Table maps case-folded category names to category codes.
type Table map[string]string

// Load builds the table from the bundled data with user overrides applied on
// top. Override entries win on key collision.
func Load(overrides map[string]string) (Table, error) {
	var doc struct {
		Categories map[string]string `yaml:"categories"`
	}
	if err := yaml.Unmarshal(bundled, &doc); err != nil {
		return nil, fmt.Errorf("parse bundled category table: %w", err)
	}

	t := make(Table, len(doc.Categories)+len(overrides))
	for name, code := range doc.Categories {
		t[strings.ToLower(name)] = code
	}
	for name, code := range overrides {
		t[strings.ToLower(name)] = code
	}
	return t, nil
}

// Resolve returns the code mapped to the given category name. Values not in
// the table are returned unchanged and treated as already being codes;
// acceptance of unknown codes is up to the publishing surface.
func (t Table) Resolve(nameOrCode string) string {
	if code, ok := t[strings.ToLower(nameOrCode)]; ok {
		return code
	}
	return nameOrCode
}
