// Package pipeline loads declarative pipeline definitions and compiles them
// into runnable processes.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/proflow/api"
)

// ErrInvalidDefinition is returned for definitions that parse but cannot be
// compiled.
var ErrInvalidDefinition = errors.New("invalid pipeline definition")

// Load reads and parses the definition at path on fsys.
func Load(fsys billy.Filesystem, path string) (*api.PipelineSpec, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a definition. The format follows the file extension
// (.hcl, .yaml/.yml, .json); without one, content starting with "{" is
// JSON and anything else YAML.
func Parse(data []byte, filename string) (*api.PipelineSpec, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".hcl":
		return parseHCL(data, filename)
	case ".yml", ".yaml":
		return parseYAML(data)
	case ".json":
		return parseJSON(data)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return parseJSON(data)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (*api.PipelineSpec, error) {
	var spec api.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse definition yaml: %w", err)
	}
	return &spec, nil
}

func parseJSON(data []byte) (*api.PipelineSpec, error) {
	var spec api.PipelineSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse definition json: %w", err)
	}
	return &spec, nil
}
