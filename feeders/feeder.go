// Package feeders provides configuration feeders for reading data from
// environment variables, YAML and TOML files into tagged structs.
package feeders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Feeder populates a struct from a configuration source.
type Feeder interface {
	Feed(target any) error
}

// ForFile returns the feeder matching the extension of path.
func ForFile(path string) (Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
}
