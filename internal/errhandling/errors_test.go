package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/kostasandrews/ExtractorFileTool/internal/delim"
)

// TestCategory tests error category constants and their string values.
func TestCategory(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryConfiguration, "configuration"},
		{CategoryDataFormat, "data_format"},
		{CategoryExtraction, "extraction"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("Category = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

func TestPipelineError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want []string
	}{
		{
			name: "configuration error without step",
			err:  NewConfigurationError("sample file cannot be read", errors.New("no such file")),
			want: []string{"configuration error", "sample file cannot be read", "no such file"},
		},
		{
			name: "data format error names step, path and column",
			err:  NewDataFormatError(2, "data/invoices.csv", "\"INVOICE_ID\"", "key column not found in header"),
			want: []string{"data_format error", "step 2", "data/invoices.csv", "column \"INVOICE_ID\""},
		},
		{
			name: "extraction error names step and path",
			err:  NewExtractionError(0, "data/customers.csv", "opening input file", errors.New("permission denied")),
			want: []string{"extraction error", "step 0", "data/customers.csv", "permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("error %q does not contain %q", msg, want)
				}
			}
		})
	}
}

func TestPipelineError_Unwrap(t *testing.T) {
	original := errors.New("disk gone")
	err := NewExtractionError(1, "out.csv", "writing output", original)

	if !errors.Is(err, original) {
		t.Error("expected errors.Is to reach the original error")
	}

	wrapped := fmt.Errorf("running plan: %w", err)
	var classified *PipelineError
	if !errors.As(wrapped, &classified) {
		t.Fatal("expected errors.As to find PipelineError through wrapping")
	}
	if classified.StepIndex != 1 {
		t.Errorf("StepIndex = %d, expected 1", classified.StepIndex)
	}
}

func TestClassifyStepError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantCategory Category
		wantColumn   string
	}{
		{
			name:         "not exist becomes extraction",
			err:          fmt.Errorf("opening: %w", fs.ErrNotExist),
			wantCategory: CategoryExtraction,
		},
		{
			name:         "permission becomes extraction",
			err:          fmt.Errorf("opening: %w", fs.ErrPermission),
			wantCategory: CategoryExtraction,
		},
		{
			name:         "missing column becomes data format",
			err:          fmt.Errorf("writing row: %w", &delim.MissingColumnError{Column: "CODE"}),
			wantCategory: CategoryDataFormat,
			wantColumn:   "CODE",
		},
		{
			name:         "already classified keeps classification",
			err:          NewConfigurationError("bad plan", nil),
			wantCategory: CategoryConfiguration,
		},
		{
			name:         "anything else is unknown",
			err:          errors.New("boom"),
			wantCategory: CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyStepError(3, "data/in.csv", tt.err)
			if classified == nil {
				t.Fatal("expected classified error, got nil")
			}
			if classified.Category != tt.wantCategory {
				t.Errorf("Category = %v, expected %v", classified.Category, tt.wantCategory)
			}
			if tt.wantColumn != "" && classified.Column != tt.wantColumn {
				t.Errorf("Column = %q, expected %q", classified.Column, tt.wantColumn)
			}
		})
	}

	if got := ClassifyStepError(0, "x", nil); got != nil {
		t.Errorf("ClassifyStepError(nil) = %v, expected nil", got)
	}
}

func TestCategoryHelpers(t *testing.T) {
	cfgErr := NewConfigurationError("bad", nil)
	fmtErr := NewDataFormatError(0, "in.csv", "ID", "missing")
	extErr := NewExtractionError(0, "in.csv", "read failed", nil)

	if !IsConfiguration(cfgErr) || IsConfiguration(fmtErr) {
		t.Error("IsConfiguration misclassified")
	}
	if !IsDataFormat(fmtErr) || IsDataFormat(extErr) {
		t.Error("IsDataFormat misclassified")
	}
	if !IsExtraction(extErr) || IsExtraction(cfgErr) {
		t.Error("IsExtraction misclassified")
	}
	if GetErrorCategory(errors.New("plain")) != CategoryUnknown {
		t.Error("expected unclassified error to map to unknown")
	}
	if GetErrorCategory(nil) != CategoryUnknown {
		t.Error("expected nil to map to unknown")
	}
}
