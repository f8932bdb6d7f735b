package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KevinKickass/donp/internal/types"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Parse validates and decodes a protocol document. YAML is converted to JSON
// first so both formats go through the same schema.
func Parse(v *Validator, data []byte, format Format) (*types.ProtocolDefinition, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &types.ConfigurationError{Path: "protocol", Reason: "invalid YAML", Err: err}
		}
		data = converted
	}

	if err := v.ValidateJSON(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var file types.ProtocolFile
	if err := dec.Decode(&file); err != nil {
		return nil, &types.ConfigurationError{Path: "protocol", Reason: "failed to decode definition", Err: err}
	}
	if file.Protocol == nil {
		return nil, types.NewConfigurationError("protocol", "protocol section is required")
	}

	return file.Protocol, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}
	return out, nil
}
