package definition

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KevinKickass/donp/internal/types"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/protocol-v1.json
var protocolSchemaJSON string

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("protocol-v1.json",
		strings.NewReader(protocolSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("protocol-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateJSON checks a JSON document against the protocol schema.
// Failures are returned as *types.ConfigurationError.
func (v *Validator) ValidateJSON(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &types.ConfigurationError{Path: "protocol", Reason: "invalid JSON", Err: err}
	}

	if err := v.schema.Validate(doc); err != nil {
		return &types.ConfigurationError{
			Path:   instancePath(err),
			Reason: "schema validation failed",
			Err:    err,
		}
	}

	return nil
}

// instancePath returns the location of the first leaf validation error as a
// dotted path, e.g. "protocol.prototype[0]".
func instancePath(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "protocol"
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(ve.InstanceLocation, "/"), "/") {
		if part == "" {
			continue
		}
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "protocol"
	}
	return b.String()
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
