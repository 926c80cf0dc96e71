package xyaml

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// RunConfig is the decoded shape of the run's YAML configuration file
// (spec §6.C).
type RunConfig struct {
	PrimaryKey PrimaryKeyConfig `yaml:"primary_key"`
}

// PrimaryKeyConfig carries provider and inline-provider configuration
// unioned across every primary_key declaration in the run (spec §6.C).
// Multiple providers and inline providers may coexist.
type PrimaryKeyConfig struct {
	InlineProvider          map[string][]string `yaml:"inline_provider"`
	Provider                []string            `yaml:"provider"`
	AllowProviderDuplicates bool                `yaml:"allow_provider_duplicates"`
	SchemaPrefix            string              `yaml:"schema_prefix"`
	Accept                  string              `yaml:"accept"`
}

// LoadRunConfig reads and decodes a run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	return &cfg, nil
}
