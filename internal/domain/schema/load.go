package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a schema from disk. Files ending in .yaml or .yml are parsed
// as YAML descriptions; everything else as Solr schema.xml.
func LoadFile(path string) (*Schema, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open schema %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := ParseYAML(f)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", path, err)
		}
		return s, nil
	default:
		s, err := ParseXML(f)
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", path, err)
		}
		return s, nil
	}
}
