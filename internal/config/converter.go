// Package config provides functionality for parsing and validating
// extraction plan files (JSON/YAML).
package config

import (
	"fmt"

	"github.com/kostasandrews/ExtractorFileTool/pkg/extraction"
)

// ConvertToPlan converts parsed plan data to a Plan struct.
// The input data should have been validated against the schema before calling
// this function.
//
// The plan is expected to have this structure:
//
//	{
//	  "main": {
//	    "sample_filename": "...",
//	    "main_key_column": "...",
//	    "normalize_quotes": false
//	  },
//	  "extraction_info": [
//	    {"input": "...", "output": "...", "key_column": "...", "relevant_keys": [...]},
//	    ...
//	  ]
//	}
func ConvertToPlan(data map[string]interface{}) (*extraction.Plan, error) {
	if data == nil {
		return nil, fmt.Errorf("plan data is nil")
	}

	// Extract main section
	mainData, ok := data["main"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'main' section")
	}

	plan := &extraction.Plan{}

	// Extract required seeding fields
	var sampleFile string
	if sampleFile, ok = mainData["sample_filename"].(string); !ok || sampleFile == "" {
		return nil, fmt.Errorf("missing required field 'main.sample_filename'")
	}
	plan.Main.SampleFile = sampleFile

	var keyColumn string
	if keyColumn, ok = mainData["main_key_column"].(string); !ok || keyColumn == "" {
		return nil, fmt.Errorf("missing required field 'main.main_key_column'")
	}
	plan.Main.KeyColumn = keyColumn

	// Extract optional fields
	if normalize, okNorm := mainData["normalize_quotes"].(bool); okNorm {
		plan.Main.NormalizeQuotes = normalize
	}

	// Extract steps
	stepsData, ok := data["extraction_info"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'extraction_info' section")
	}
	if len(stepsData) == 0 {
		return nil, fmt.Errorf("'extraction_info' must contain at least one step")
	}

	for i, stepData := range stepsData {
		stepMap, isMap := stepData.(map[string]interface{})
		if !isMap {
			return nil, fmt.Errorf("invalid step at index %d", i)
		}
		step, convertErr := convertStep(stepMap)
		if convertErr != nil {
			return nil, fmt.Errorf("invalid step at index %d: %w", i, convertErr)
		}
		plan.Steps = append(plan.Steps, *step)
	}

	return plan, nil
}

// convertStep converts a raw step map to a Step.
func convertStep(data map[string]interface{}) (*extraction.Step, error) {
	step := &extraction.Step{}

	// Extract required fields
	input, ok := data["input"].(string)
	if !ok || input == "" {
		return nil, fmt.Errorf("missing required field 'input'")
	}
	step.Input = input

	output, ok := data["output"].(string)
	if !ok || output == "" {
		return nil, fmt.Errorf("missing required field 'output'")
	}
	step.Output = output

	keyColumn, ok := data["key_column"].(string)
	if !ok || keyColumn == "" {
		return nil, fmt.Errorf("missing required field 'key_column'")
	}
	step.KeyColumn = keyColumn

	// Extract relevant_keys (optional)
	if keysData, okKeys := data["relevant_keys"].([]interface{}); okKeys {
		for i, keyData := range keysData {
			key, isString := keyData.(string)
			if !isString || key == "" {
				return nil, fmt.Errorf("invalid relevant_keys entry at index %d: expected non-empty string", i)
			}
			step.RelevantKeys = append(step.RelevantKeys, key)
		}
	}

	// Extract row hooks (optional)
	if condition, okCond := data["condition"].(string); okCond {
		step.Condition = condition
	}
	if onError, okOnErr := data["on_condition_error"].(string); okOnErr {
		if onError != "fail" && onError != "skip" {
			return nil, fmt.Errorf("invalid 'on_condition_error' value %q: must be \"fail\" or \"skip\"", onError)
		}
		step.OnConditionError = onError
	}
	if script, okScript := data["script"].(string); okScript {
		step.Script = script
	}
	if scriptFile, okFile := data["script_file"].(string); okFile {
		step.ScriptFile = scriptFile
	}
	if step.Script != "" && step.ScriptFile != "" {
		return nil, fmt.Errorf("'script' and 'script_file' are mutually exclusive")
	}

	return step, nil
}
