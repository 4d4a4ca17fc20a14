// Package ingest loads the source trees a pipeline reads from: JSON and
// YAML documents, JSONPath selections over them and SQLite result tables.
package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// LoadDocument reads a JSON or YAML document from fsys.
func LoadDocument(fsys billy.Filesystem, path string) (any, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return ParseDocument(data, filepath.Ext(path))
}

// ParseDocument decodes data as JSON or YAML. ext is a format hint such as
// ".json" or ".yaml"; when empty, content starting with "{" or "[" is JSON.
func ParseDocument(data []byte, ext string) (any, error) {
	ext = strings.ToLower(ext)
	if ext == "" {
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			ext = ".json"
		}
	}
	var doc any
	if ext == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse document json: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document yaml: %w", err)
	}
	return doc, nil
}
