// Package extraction provides public types for extraction plans and their
// execution results. This package is intended to be importable by external
// projects that need to build plans or inspect run summaries.
package extraction

import "time"

// Plan represents a complete extraction plan. It names the sample file that
// seeds the key set and the ordered steps that filter delimited files by
// key membership.
type Plan struct {
	// Main configures the key set seeding phase
	Main Main `json:"main"`

	// Steps is the ordered list of extraction steps
	Steps []Step `json:"extraction_info"`
}

// Main configures how the key set is seeded before any step runs.
type Main struct {
	// SampleFile is the path of the delimited file whose key column seeds
	// the key set
	SampleFile string `json:"sample_filename"`

	// KeyColumn is the header column of SampleFile holding the seed keys
	KeyColumn string `json:"main_key_column"`

	// NormalizeQuotes enables rewriting of apostrophes and typographic
	// quotes to '"' in every input file before the run
	NormalizeQuotes bool `json:"normalize_quotes,omitempty"`
}

// Step represents a single extraction step: filter one input file by key
// membership, write the kept rows, and harvest new keys for later steps.
type Step struct {
	// Input is the path of the delimited file to read
	Input string `json:"input"`

	// Output is the path the kept rows are written to
	Output string `json:"output"`

	// KeyColumn is the header column whose value is tested against the
	// key set
	KeyColumn string `json:"key_column"`

	// RelevantKeys lists header columns whose values from kept rows are
	// added to the key set after this step completes
	RelevantKeys []string `json:"relevant_keys,omitempty"`

	// Condition is an optional expression evaluated per kept row; rows for
	// which it is false are dropped (e.g. `row.STATUS == "ACTIVE"`)
	Condition string `json:"condition,omitempty"`

	// OnConditionError specifies the action when Condition fails to
	// evaluate ("fail", "skip")
	OnConditionError string `json:"on_condition_error,omitempty"`

	// Script is an optional JavaScript source defining transform(row),
	// applied to kept rows before they are harvested and written
	Script string `json:"script,omitempty"`

	// ScriptFile is the path of a script file; mutually exclusive with
	// Script
	ScriptFile string `json:"script_file,omitempty"`
}

// Status values reported in RunResult.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunResult represents the outcome of running an extraction plan.
type RunResult struct {
	// RunID is the unique identifier of this run
	RunID string `json:"run_id"`

	// PlanPath is the path of the plan file the run was loaded from
	PlanPath string `json:"plan_path,omitempty"`

	// Status is the run status ("success", "error")
	Status string `json:"status"`

	// DryRun indicates the run read and filtered without writing outputs
	DryRun bool `json:"dry_run,omitempty"`

	// StartedAt is when the run started
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed
	CompletedAt time.Time `json:"completed_at"`

	// KeysSeeded is the key set size after seeding from the sample file
	KeysSeeded int `json:"keys_seeded"`

	// KeysFinal is the key set size when the run ended
	KeysFinal int `json:"keys_final"`

	// Steps holds one result per executed step, in plan order
	Steps []StepResult `json:"steps"`

	// Error contains error details if the run failed
	Error *RunError `json:"error,omitempty"`
}

// StepResult represents the outcome of a single extraction step.
type StepResult struct {
	// Index is the position of the step in the plan, starting at 0
	Index int `json:"index"`

	// Input is the path that was read
	Input string `json:"input"`

	// Output is the path that was written
	Output string `json:"output"`

	// RowsRead is the number of data rows read from Input
	RowsRead int `json:"rows_read"`

	// RowsKept is the number of rows written to Output
	RowsKept int `json:"rows_kept"`

	// RowsSkipped is the number of malformed rows that were skipped
	RowsSkipped int `json:"rows_skipped"`

	// KeysAdded is the number of new keys harvested by this step
	KeysAdded int `json:"keys_added"`

	// Duration is how long the step took
	Duration time.Duration `json:"duration"`
}

// RunError contains details about a run failure.
type RunError struct {
	// Code is the error code
	Code string `json:"code"`

	// Category is the error category ("configuration", "data_format",
	// "extraction", "unknown")
	Category string `json:"category"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// StepIndex is the step the error occurred in, or -1 when the failure
	// happened before any step ran
	StepIndex int `json:"step_index"`

	// Path is the file involved in the failure, if any
	Path string `json:"path,omitempty"`
}
