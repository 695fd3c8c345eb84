package config

import (
	"strings"
	"testing"
)

func TestValidatePlan_ValidPlan(t *testing.T) {
	// Parse valid plan first
	parseResult := ParseJSONFile("testdata/valid-plan.json")
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse valid plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if !result.Valid {
		t.Errorf("expected valid plan, got errors: %v", result.Errors)
	}
}

func TestValidatePlan_MissingRequiredField(t *testing.T) {
	// Fixture is missing main.main_key_column and has an empty step list
	parseResult := ParseJSONFile("testdata/invalid-schema.json")
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Error("expected validation to fail for plan missing required field")
	}

	if len(result.Errors) == 0 {
		t.Error("expected at least one validation error")
	}

	// Check that error mentions the missing field
	found := false
	for _, err := range result.Errors {
		if err.Type == "required" || strings.Contains(strings.ToLower(err.Message), "required") || strings.Contains(strings.ToLower(err.Message), "main_key_column") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error about missing required field, got: %v", result.Errors)
	}
}

func TestValidatePlan_WrongType(t *testing.T) {
	// main_key_column should be a string, not a number
	parseResult := ParseJSONString(`{
		"main": {"sample_filename": "s.csv", "main_key_column": 42},
		"extraction_info": [{"input": "a.csv", "output": "b.csv", "key_column": "ID"}]
	}`)
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Error("expected validation to fail for plan with wrong type")
	}

	if len(result.Errors) == 0 {
		t.Error("expected at least one validation error")
	}

	// Check that error mentions type issue
	found := false
	for _, err := range result.Errors {
		if err.Type == "type" || strings.Contains(strings.ToLower(err.Message), "type") || strings.Contains(strings.ToLower(err.Message), "string") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected error about type mismatch, got: %v", result.Errors)
	}
}

func TestValidatePlan_InvalidConditionErrorMode(t *testing.T) {
	// on_condition_error only accepts "fail" or "skip"
	parseResult := ParseJSONString(`{
		"main": {"sample_filename": "s.csv", "main_key_column": "ID"},
		"extraction_info": [{"input": "a.csv", "output": "b.csv", "key_column": "ID", "on_condition_error": "retry"}]
	}`)
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Error("expected validation to fail for invalid on_condition_error value")
	}

	if len(result.Errors) == 0 {
		t.Error("expected at least one validation error")
	}
}

func TestValidatePlan_ScriptAndScriptFile(t *testing.T) {
	// script and script_file are mutually exclusive
	parseResult := ParseJSONString(`{
		"main": {"sample_filename": "s.csv", "main_key_column": "ID"},
		"extraction_info": [{"input": "a.csv", "output": "b.csv", "key_column": "ID", "script": "function transform(row) { return row; }", "script_file": "t.js"}]
	}`)
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Error("expected validation to fail when both script and script_file are set")
	}
}

func TestValidatePlan_UnknownProperty(t *testing.T) {
	parseResult := ParseJSONString(`{
		"main": {"sample_filename": "s.csv", "main_key_column": "ID", "extra": true},
		"extraction_info": [{"input": "a.csv", "output": "b.csv", "key_column": "ID"}]
	}`)
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Error("expected validation to fail for unknown property in main")
	}
}

func TestValidatePlan_NilData(t *testing.T) {
	result := ValidatePlan(nil)

	if result.Valid {
		t.Error("expected validation to fail for nil data")
	}
}

func TestValidatePlan_EmptyData(t *testing.T) {
	result := ValidatePlan(map[string]interface{}{})

	if result.Valid {
		t.Error("expected validation to fail for empty data")
	}
}

func TestValidationError_Path(t *testing.T) {
	parseResult := ParseJSONString(`{
		"main": {"sample_filename": "s.csv", "main_key_column": 42},
		"extraction_info": [{"input": "a.csv", "output": "b.csv", "key_column": "ID"}]
	}`)
	if !parseResult.IsValid() {
		t.Fatalf("failed to parse plan: %v", parseResult.Errors)
	}

	// Validate against schema
	result := ValidatePlan(parseResult.Data)

	if result.Valid {
		t.Skip("validation passed unexpectedly, cannot test error path")
	}

	// Check that at least one error has a path
	hasPath := false
	for _, err := range result.Errors {
		if err.Path != "" {
			hasPath = true
			break
		}
	}
	if !hasPath {
		t.Error("expected at least one validation error with a JSON path")
	}
}

func TestGetEmbeddedSchema_ReturnsSchema(t *testing.T) {
	schema := GetEmbeddedSchema()
	if len(schema) == 0 {
		t.Error("expected embedded schema to be non-empty")
	}
}
