package runtime

import (
	"github.com/kostasandrews/ExtractorFileTool/internal/errhandling"
)

// Category identifies the failure class of a run error.
type Category = errhandling.Category

// Error categories re-exported for callers that only import runtime.
const (
	CategoryConfiguration = errhandling.CategoryConfiguration
	CategoryDataFormat    = errhandling.CategoryDataFormat
	CategoryExtraction    = errhandling.CategoryExtraction
	CategoryUnknown       = errhandling.CategoryUnknown
)

// NoStep marks errors that are not tied to a specific step.
const NoStep = errhandling.NoStep

// Error classification helpers re-exported for callers that only
// import runtime.
var (
	GetErrorCategory = errhandling.GetErrorCategory
	IsConfiguration  = errhandling.IsConfiguration
	IsDataFormat     = errhandling.IsDataFormat
	IsExtraction     = errhandling.IsExtraction
)
