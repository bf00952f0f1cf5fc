package jsonx

import (
	"errors"
	"testing"
)

type diagnosis struct {
	CurrentStage string   `json:"currentStage"`
	Constraints  []string `json:"constraints"`
}

func TestParseAcceptsCleanFencedAndTruncatedJSON(t *testing.T) {
	inputs := []string{
		`{"currentStage":"Growth","constraints":["leads"]}`,
		"```json\n{\"currentStage\":\"Growth\",\"constraints\":[\"leads\"]}\n```",
		`{"currentStage":"Growth","constraints":["leads"]`,
	}
	for _, in := range inputs {
		var d diagnosis
		if err := Parse(in, &d); err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if d.CurrentStage != "Growth" || len(d.Constraints) != 1 {
			t.Fatalf("Parse(%q): unexpected value %+v", in, d)
		}
	}
}

func TestParseReturnsErrorForNonJSON(t *testing.T) {
	var d diagnosis
	if err := Parse("", &d); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestValidatorReportsMissingRequired(t *testing.T) {
	v, err := NewValidator(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"currentStage": map[string]any{"type": "string"},
		},
		"required": []string{"currentStage"},
	})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	if err := v.Validate(map[string]any{"currentStage": "Growth"}); err != nil {
		t.Fatalf("valid data rejected: %v", err)
	}
	err = v.Validate(map[string]any{})
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) == 0 {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
