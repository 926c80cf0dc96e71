// Package xyaml implements the Document loader (spec §6.B) and
// configuration-file parsing (spec §6.C) using github.com/goccy/go-yaml,
// walking source trees with filepath.WalkDir.
package xyaml

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// LoadedDocument is one file discovered and decoded by [Walk].
type LoadedDocument struct {
	SourceURI string
	Value     any
}

// Walk recursively walks root, decoding every .json, .yaml, and .yml file
// it finds, and returns one [LoadedDocument] per file in lexical path
// order (spec §5: documents are ordered by source URI lexicographically).
func Walk(root string) ([]LoadedDocument, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isSupportedExt(path) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", root, err)
	}

	docs := make([]LoadedDocument, 0, len(paths))
	for _, p := range paths {
		v, err := LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		docs = append(docs, LoadedDocument{SourceURI: p, Value: v})
	}

	return docs, nil
}

func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LoadFile decodes a single .json/.yaml/.yml file into a generic JSON
// value (nil, bool, float64, string, []any, map[string]any).
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
		v = normalizeYAML(v)
	default:
		return nil, fmt.Errorf("unsupported extension: %s", path)
	}

	return v, nil
}

// normalizeYAML widens goccy/go-yaml's decoded numeric types (int, int64,
// uint64) to float64 so downstream code (path resolution, key-tuple
// canonicalization) deals with a single JSON number representation,
// matching the shape encoding/json produces.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}

		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}

		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
