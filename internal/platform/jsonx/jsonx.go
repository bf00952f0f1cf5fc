// Package jsonx decodes model-produced JSON and checks it against a JSON Schema.
package jsonx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
	"github.com/kaptinlin/jsonschema"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Parse decodes raw into v. Model output is sometimes truncated or lightly malformed, so a failed
// decode is retried with a closing brace appended and then through jsonrepair. The original decode
// error is returned when every attempt fails.
func Parse(raw string, v any) error {
	raw = stripFence(raw)
	err := codec.UnmarshalFromString(raw, v)
	if err == nil {
		return nil
	}
	originalErr := err

	if err := codec.UnmarshalFromString(raw+"}", v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return originalErr
	}
	if err := codec.UnmarshalFromString(repaired, v); err == nil {
		return nil
	}
	return originalErr
}

// Marshal encodes v with the same codec Parse uses.
func Marshal(v any) ([]byte, error) {
	return codec.Marshal(v)
}

// MarshalIndent is Marshal with two-space indentation, for prompts.
func MarshalIndent(v any) string {
	b, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Validator wraps a compiled JSON Schema.
type Validator struct {
	schema *jsonschema.Schema
}

// ValidationError lists the failing schema locations in sorted order.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidator compiles schema, which may be a map, a JSON string or JSON bytes.
func NewValidator(schema any) (*Validator, error) {
	var raw []byte
	switch s := schema.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		b, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		raw = b
	}
	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON Schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks decoded JSON (maps, slices, scalars) against the schema.
func (v *Validator) Validate(data any) error {
	result := v.schema.Validate(data)
	if result.IsValid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors))
	for field, e := range result.Errors {
		msg := field
		if e != nil {
			msg = fmt.Sprintf("%s: %s", field, e.Message)
		}
		problems = append(problems, msg)
	}
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}
