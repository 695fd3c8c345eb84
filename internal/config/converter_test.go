// Package config provides functionality for parsing and validating
// extraction plan files (JSON/YAML).
package config

import (
	"strings"
	"testing"
)

func TestConvertToPlan_ValidPlan(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"main": map[string]interface{}{
			"sample_filename":  "data/sample_customers.csv",
			"main_key_column":  "\"CUSTOMER_CODE\"",
			"normalize_quotes": true,
		},
		"extraction_info": []interface{}{
			map[string]interface{}{
				"input":         "data/customers.csv",
				"output":        "out/customers.csv",
				"key_column":    "\"CUSTOMER_CODE\"",
				"relevant_keys": []interface{}{"\"INVOICE_ID\"", "\"ORDER_ID\""},
			},
			map[string]interface{}{
				"input":      "data/invoices.csv",
				"output":     "out/invoices.csv",
				"key_column": "\"INVOICE_ID\"",
				"condition":  `row["STATUS"] == "OPEN"`,
			},
		},
	}

	// Act
	plan, err := ConvertToPlan(data)

	// Assert
	if err != nil {
		t.Fatalf("ConvertToPlan() error = %v", err)
	}

	if plan == nil {
		t.Fatal("ConvertToPlan() returned nil plan")
	}

	if plan.Main.SampleFile != "data/sample_customers.csv" {
		t.Errorf("Expected sample file 'data/sample_customers.csv', got '%s'", plan.Main.SampleFile)
	}

	if plan.Main.KeyColumn != "\"CUSTOMER_CODE\"" {
		t.Errorf("Expected key column '\"CUSTOMER_CODE\"', got '%s'", plan.Main.KeyColumn)
	}

	if !plan.Main.NormalizeQuotes {
		t.Error("Expected normalize_quotes to be true")
	}

	if len(plan.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(plan.Steps))
	}

	if plan.Steps[0].Input != "data/customers.csv" {
		t.Errorf("Expected first step input 'data/customers.csv', got '%s'", plan.Steps[0].Input)
	}

	if plan.Steps[0].Output != "out/customers.csv" {
		t.Errorf("Expected first step output 'out/customers.csv', got '%s'", plan.Steps[0].Output)
	}

	if len(plan.Steps[0].RelevantKeys) != 2 {
		t.Fatalf("Expected 2 relevant keys, got %d", len(plan.Steps[0].RelevantKeys))
	}

	if plan.Steps[0].RelevantKeys[0] != "\"INVOICE_ID\"" {
		t.Errorf("Expected relevant key '\"INVOICE_ID\"', got '%s'", plan.Steps[0].RelevantKeys[0])
	}

	if plan.Steps[1].KeyColumn != "\"INVOICE_ID\"" {
		t.Errorf("Expected second step key column '\"INVOICE_ID\"', got '%s'", plan.Steps[1].KeyColumn)
	}

	if plan.Steps[1].Condition == "" {
		t.Error("Expected second step condition to be set")
	}

	if len(plan.Steps[1].RelevantKeys) != 0 {
		t.Errorf("Expected no relevant keys on second step, got %v", plan.Steps[1].RelevantKeys)
	}
}

func TestConvertToPlan_NilData(t *testing.T) {
	// Act
	plan, err := ConvertToPlan(nil)

	// Assert
	if err == nil {
		t.Error("Expected error for nil data")
	}

	if plan != nil {
		t.Error("Expected nil plan for nil data")
	}
}

func TestConvertToPlan_MissingMainSection(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"extraction_info": []interface{}{},
	}

	// Act
	plan, err := ConvertToPlan(data)

	// Assert
	if err == nil {
		t.Error("Expected error for missing main section")
	}

	if plan != nil {
		t.Error("Expected nil plan for missing main section")
	}
}

func TestConvertToPlan_MissingRequiredFields(t *testing.T) {
	validStep := map[string]interface{}{
		"input":      "a.csv",
		"output":     "b.csv",
		"key_column": "ID",
	}

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr string
	}{
		{
			name: "missing sample_filename",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"main_key_column": "ID",
				},
				"extraction_info": []interface{}{validStep},
			},
			wantErr: "missing required field 'main.sample_filename'",
		},
		{
			name: "missing main_key_column",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
				},
				"extraction_info": []interface{}{validStep},
			},
			wantErr: "missing required field 'main.main_key_column'",
		},
		{
			name: "missing extraction_info",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
					"main_key_column": "ID",
				},
			},
			wantErr: "missing or invalid 'extraction_info' section",
		},
		{
			name: "empty extraction_info",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
					"main_key_column": "ID",
				},
				"extraction_info": []interface{}{},
			},
			wantErr: "'extraction_info' must contain at least one step",
		},
		{
			name: "step missing input",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
					"main_key_column": "ID",
				},
				"extraction_info": []interface{}{
					map[string]interface{}{
						"output":     "b.csv",
						"key_column": "ID",
					},
				},
			},
			wantErr: "missing required field 'input'",
		},
		{
			name: "step missing output",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
					"main_key_column": "ID",
				},
				"extraction_info": []interface{}{
					map[string]interface{}{
						"input":      "a.csv",
						"key_column": "ID",
					},
				},
			},
			wantErr: "missing required field 'output'",
		},
		{
			name: "step missing key_column",
			data: map[string]interface{}{
				"main": map[string]interface{}{
					"sample_filename": "s.csv",
					"main_key_column": "ID",
				},
				"extraction_info": []interface{}{
					map[string]interface{}{
						"input":  "a.csv",
						"output": "b.csv",
					},
				},
			},
			wantErr: "missing required field 'key_column'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ConvertToPlan(tt.data)

			if err == nil {
				t.Fatalf("Expected error containing '%s'", tt.wantErr)
			}

			if plan != nil {
				t.Error("Expected nil plan for missing required field")
			}

			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got '%v'", tt.wantErr, err)
			}
		})
	}
}

func TestConvertToPlan_InvalidRelevantKeys(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"main": map[string]interface{}{
			"sample_filename": "s.csv",
			"main_key_column": "ID",
		},
		"extraction_info": []interface{}{
			map[string]interface{}{
				"input":         "a.csv",
				"output":        "b.csv",
				"key_column":    "ID",
				"relevant_keys": []interface{}{"OK", ""},
			},
		},
	}

	// Act
	plan, err := ConvertToPlan(data)

	// Assert
	if err == nil {
		t.Error("Expected error for empty relevant_keys entry")
	}

	if plan != nil {
		t.Error("Expected nil plan for invalid relevant_keys")
	}

	if err != nil && !strings.Contains(err.Error(), "relevant_keys") {
		t.Errorf("Expected error to mention relevant_keys, got '%v'", err)
	}
}

func TestConvertToPlan_InvalidConditionErrorMode(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"main": map[string]interface{}{
			"sample_filename": "s.csv",
			"main_key_column": "ID",
		},
		"extraction_info": []interface{}{
			map[string]interface{}{
				"input":              "a.csv",
				"output":             "b.csv",
				"key_column":         "ID",
				"on_condition_error": "retry",
			},
		},
	}

	// Act
	plan, err := ConvertToPlan(data)

	// Assert
	if err == nil {
		t.Error("Expected error for invalid on_condition_error value")
	}

	if plan != nil {
		t.Error("Expected nil plan for invalid on_condition_error")
	}
}

func TestConvertToPlan_ScriptAndScriptFile(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"main": map[string]interface{}{
			"sample_filename": "s.csv",
			"main_key_column": "ID",
		},
		"extraction_info": []interface{}{
			map[string]interface{}{
				"input":       "a.csv",
				"output":      "b.csv",
				"key_column":  "ID",
				"script":      "function transform(row) { return row; }",
				"script_file": "t.js",
			},
		},
	}

	// Act
	_, err := ConvertToPlan(data)

	// Assert
	if err == nil {
		t.Error("Expected error when both script and script_file are set")
	}

	if err != nil && !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("Expected mutual exclusion error, got '%v'", err)
	}
}

func TestConvertToPlan_StepOrderPreserved(t *testing.T) {
	// Arrange
	data := map[string]interface{}{
		"main": map[string]interface{}{
			"sample_filename": "s.csv",
			"main_key_column": "ID",
		},
		"extraction_info": []interface{}{
			map[string]interface{}{"input": "first.csv", "output": "o1.csv", "key_column": "ID"},
			map[string]interface{}{"input": "second.csv", "output": "o2.csv", "key_column": "ID"},
			map[string]interface{}{"input": "third.csv", "output": "o3.csv", "key_column": "ID"},
		},
	}

	// Act
	plan, err := ConvertToPlan(data)

	// Assert
	if err != nil {
		t.Fatalf("ConvertToPlan() error = %v", err)
	}

	wantInputs := []string{"first.csv", "second.csv", "third.csv"}
	if len(plan.Steps) != len(wantInputs) {
		t.Fatalf("Expected %d steps, got %d", len(wantInputs), len(plan.Steps))
	}
	for i, want := range wantInputs {
		if plan.Steps[i].Input != want {
			t.Errorf("Step %d: expected input '%s', got '%s'", i, want, plan.Steps[i].Input)
		}
	}
}
