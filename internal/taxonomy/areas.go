// Package taxonomy maps classifier category labels to the thematic areas
// used for report assignment. The mapping is fixed and shipped with the
// binary; a category the table does not know maps to Unassigned.
package taxonomy

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Unassigned is returned for any category absent from the lookup table.
const Unassigned = "Unassigned"

//go:embed areas.yaml
var areasYAML []byte

type Lookup struct {
	areas      map[string]string
	categories []string
}

type areasFile struct {
	Categories []struct {
		Category     string `yaml:"category"`
		ThematicArea string `yaml:"thematic_area"`
	} `yaml:"categories"`
}

// Load parses the embedded lookup table. It fails only on a broken build
// (malformed embedded file), so callers treat an error as fatal at startup.
func Load() (*Lookup, error) {
	var file areasFile
	if err := yaml.Unmarshal(areasYAML, &file); err != nil {
		return nil, fmt.Errorf("parse embedded areas table: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("embedded areas table is empty")
	}

	lookup := &Lookup{areas: make(map[string]string, len(file.Categories))}
	for _, entry := range file.Categories {
		if entry.Category == "" || entry.ThematicArea == "" {
			return nil, fmt.Errorf("embedded areas table has an incomplete entry: %+v", entry)
		}
		if _, exists := lookup.areas[entry.Category]; !exists {
			lookup.categories = append(lookup.categories, entry.Category)
		}
		lookup.areas[entry.Category] = entry.ThematicArea
	}
	return lookup, nil
}

// ThematicArea resolves a category label to its thematic area,
// falling back to Unassigned for unknown labels.
func (l *Lookup) ThematicArea(category string) string {
	if area, ok := l.areas[category]; ok {
		return area
	}
	return Unassigned
}

// Categories returns the known category labels in table order.
func (l *Lookup) Categories() []string {
	out := make([]string, len(l.categories))
	copy(out, l.categories)
	return out
}
