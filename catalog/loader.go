package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/gtmflow/types"
)

// SchemaLoader loads AgentSchema definitions from files or raw bytes.
type SchemaLoader interface {
	// LoadFile reads a file and parses it into an AgentSchema.
	// Format is auto-detected from the file extension (.yaml, .yml, .json).
	LoadFile(path string) (*types.AgentSchema, error)

	// LoadBytes parses raw bytes into an AgentSchema.
	// format must be "yaml" or "json".
	LoadBytes(data []byte, format string) (*types.AgentSchema, error)
}

// YAMLLoader implements SchemaLoader for YAML and JSON formats.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAMLLoader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// LoadFile reads a file and parses it based on extension.
func (l *YAMLLoader) LoadFile(path string) (*types.AgentSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent schema file: %w", err)
	}

	format := detectFormat(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}

	return l.LoadBytes(data, format)
}

// LoadBytes parses raw bytes in the given format ("yaml" or "json").
func (l *YAMLLoader) LoadBytes(data []byte, format string) (*types.AgentSchema, error) {
	var schema types.AgentSchema

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q, use \"yaml\" or \"json\"", format)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// validateSchema 检查必填字段与字段类型声明。
func validateSchema(s *types.AgentSchema) error {
	var errs []string
	if s.ID == "" {
		errs = append(errs, "id is required")
	}
	if s.Name == "" {
		errs = append(errs, "name is required")
	}
	if s.Schema == nil {
		errs = append(errs, "schema is required")
	} else {
		for field, prop := range s.Schema.Properties {
			if prop == nil {
				errs = append(errs, fmt.Sprintf("property %q is empty", field))
				continue
			}
			switch prop.Type {
			case types.SchemaTypeString, types.SchemaTypeNumber, types.SchemaTypeInteger,
				types.SchemaTypeBoolean, types.SchemaTypeArray, types.SchemaTypeObject:
			default:
				errs = append(errs, fmt.Sprintf("property %q has unsupported type %q", field, prop.Type))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid agent schema %q: %s", s.ID, strings.Join(errs, "; "))
	}
	return nil
}

// detectFormat returns "yaml" or "json" based on file extension, or "" if unknown.
func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}
