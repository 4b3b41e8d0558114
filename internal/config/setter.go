package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned for an empty dotted key.
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key path into its segments.
func ParseKeyPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyKeyPath
	}
	return strings.Split(path, "."), nil
}

// SetConfigValue validates value against the schema for key and writes it
// into the YAML file at configPath, creating the file when missing.
// Comments in an existing file are kept.
func SetConfigValue(configPath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return err
	}
	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return err
	}

	var root yaml.Node
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := CheckYAML(data, configPath); err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("reading %s: %w", configPath, err)
	}

	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}

// SetNestedValue sets keyPath to value inside the document rooted at root,
// creating intermediate mappings as needed.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}

	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
		}
		root = root.Content[0]
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	current := root
	for i, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return fmt.Errorf("%s is not a mapping", strings.Join(keyPath[:i], "."))
		}
		last := i == len(keyPath)-1

		child := mappingValue(current, key)
		if child == nil {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			current.Content = append(current.Content, keyNode, child)
		}
		if last {
			*child = valueNode
			return nil
		}
		current = child
	}
	return nil
}

// GetNestedValue returns the node at keyPath, or nil when any segment is missing.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if len(keyPath) == 0 {
		return nil
	}
	current := root
	if current.Kind == yaml.DocumentNode {
		if len(current.Content) == 0 {
			return nil
		}
		current = current.Content[0]
	}
	for _, key := range keyPath {
		if current.Kind != yaml.MappingNode {
			return nil
		}
		current = mappingValue(current, key)
		if current == nil {
			return nil
		}
	}
	return current
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
