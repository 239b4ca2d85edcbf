package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a TOML, JSON or YAML settings file and resolves it into the
// current settings. A missing file yields ErrFileNotFound.
func (m *Manager) LoadFile(path string) error {
	input, err := readTree(path)
	if err != nil {
		return err
	}
	if _, err := m.Change(input); err != nil {
		return fmt.Errorf("failed to apply settings file '%s': %w", path, err)
	}
	return nil
}

// LoadCLI resolves command-line arguments of the form --a.b=value, --a.b value
// or --flag (true). Values stay strings; map types convert them.
func (m *Manager) LoadCLI(args []string) error {
	input, err := parseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	if len(input) == 0 {
		return nil
	}
	if _, err := m.Change(input); err != nil {
		return fmt.Errorf("failed to apply arguments: %w", err)
	}
	return nil
}

// readTree reads and parses a structured file into a nested map.
func readTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	format := detectFileFormat(path)
	if format == "" {
		format = detectFormatFromContent(data)
	}

	tree := make(map[string]any)
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse TOML file '%s': %w", path, err)
		}
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&tree); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file '%s': %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine format for file '%s'", path)
	}
	return tree, nil
}

// Save writes the current settings to a TOML file atomically.
func (m *Manager) Save(path string) error {
	return writeTOML(path, m.data)
}

// SaveOrigin writes only the leaves whose provenance equals origin, e.g.
// OriginSet to persist just what was explicitly changed.
func (m *Manager) SaveOrigin(path string, origin Origin) error {
	nested := make(map[string]any)
	m.metadata.walkLeaves(nil, func(p []string, e *Entry) {
		if e.From == origin {
			setNestedValue(nested, strings.Join(p, "."), e.Value)
		}
	})
	return writeTOML(path, nested)
}

func writeTOML(path string, tree map[string]any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tree); err != nil {
		return fmt.Errorf("failed to marshal settings to TOML: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile writes data to a temporary file and renames it into place.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// parseArgs processes command-line arguments into a nested input tree.
func parseArgs(args []string) (map[string]any, error) {
	result := make(map[string]any)
	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			i++
			continue
		}

		argContent := strings.TrimPrefix(arg, "--")
		if argContent == "" {
			// "--" separator
			i++
			continue
		}

		var keyPath, valueStr string
		if key, value, ok := strings.Cut(argContent, "="); ok {
			keyPath, valueStr = key, value
			i++
		} else {
			keyPath = argContent
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}
		for _, segment := range strings.Split(keyPath, ".") {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("invalid command-line key segment %q in path %q", segment, keyPath)
			}
		}
		setNestedValue(result, keyPath, valueStr)
	}
	return result, nil
}

// detectFileFormat determines format from file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
func detectFormatFromContent(data []byte) string {
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err == nil {
		return "json"
	}
	// TOML before YAML: most TOML documents are not valid YAML mappings, but
	// "key = value" lines would be read by YAML as a plain scalar.
	if err := toml.Unmarshal(data, &probe); err == nil {
		return "toml"
	}
	if err := yaml.Unmarshal(data, &probe); err == nil {
		return "yaml"
	}
	return ""
}
