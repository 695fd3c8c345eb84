// Package script executes JavaScript row transforms using the Goja engine.
// A step's script must define a transform(row) function; the returned
// object becomes the new row, with each value converted to its cell text
// using JavaScript string semantics.
package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/kostasandrews/ExtractorFileTool/internal/delim"
	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
	"github.com/kostasandrews/ExtractorFileTool/internal/pathutil"
)

// Error codes for script transforms
const (
	ErrCodeScriptEmpty          = "SCRIPT_EMPTY"
	ErrCodeScriptTooLong        = "SCRIPT_TOO_LONG"
	ErrCodeCompilationFailed    = "COMPILATION_FAILED"
	ErrCodeMissingTransform     = "MISSING_TRANSFORM"
	ErrCodeNotFunction          = "NOT_FUNCTION"
	ErrCodeExecutionFailed      = "EXECUTION_FAILED"
	ErrCodeInvalidScriptFile    = "INVALID_SCRIPT_FILE"
	ErrCodeScriptFileReadFailed = "SCRIPT_FILE_READ_FAILED"
)

// MaxScriptLength is the maximum allowed script length in bytes (100KB).
const MaxScriptLength = 100 * 1024

// Common errors for script transforms
var (
	// ErrScriptEmpty is returned when the script is empty or whitespace-only
	ErrScriptEmpty = fmt.Errorf("script cannot be empty")
	// ErrScriptTooLong is returned when the script exceeds MaxScriptLength
	ErrScriptTooLong = fmt.Errorf("script exceeds maximum length")
	// ErrMissingTransformFunc is returned when the script doesn't define a transform function
	ErrMissingTransformFunc = fmt.Errorf("transform function not found in script")
	// ErrTransformNotFunction is returned when transform is defined but is not a function
	ErrTransformNotFunction = fmt.Errorf("transform is not a function")
)

// Transformer applies a JavaScript transform(row) function to rows.
//
// Thread Safety:
//   - Goja runtime instances are NOT goroutine-safe
//   - Each Transformer instance has its own runtime
//   - Transform() should not be called concurrently on the same instance
//
// Context Cancellation:
//   - JavaScript execution can be interrupted via runtime.Interrupt() when
//     the context is canceled
type Transformer struct {
	source      string
	runtime     *goja.Runtime // Not goroutine-safe - one runtime per instance
	transformFn goja.Callable
	interruptMu sync.Mutex // Protects interrupt state
}

// ScriptError carries structured context for script execution failures.
type ScriptError struct {
	Code       string
	Message    string
	Line       int
	StackTrace string
	Details    map[string]interface{}
}

func (e *ScriptError) Error() string {
	return e.Message
}

// newScriptError creates a ScriptError with optional details.
func newScriptError(code, message string, line int, stackTrace string, err error) *ScriptError {
	details := make(map[string]interface{})
	if err != nil {
		details["underlying_error"] = err.Error()
	}
	if stackTrace != "" {
		details["stack_trace"] = stackTrace
	}

	return &ScriptError{
		Code:       code,
		Message:    message,
		Line:       line,
		StackTrace: stackTrace,
		Details:    details,
	}
}

// New creates a Transformer from an inline script or a script file path
// (exactly one must be provided). It validates the script, compiles it,
// and verifies the transform function exists.
//
// Scripts are validated for length (max 100KB), and Goja provides
// sandboxed execution: no file system or network access from JavaScript.
func New(source, sourceFile string) (*Transformer, error) {
	resolved, err := resolveSource(source, sourceFile)
	if err != nil {
		return nil, err
	}

	if validateErr := validateScript(resolved); validateErr != nil {
		return nil, validateErr
	}

	vm := goja.New()

	_, err = vm.RunString(resolved)
	if err != nil {
		return nil, newScriptError(ErrCodeCompilationFailed, fmt.Sprintf("script compilation failed: %v", err), 0, "", err)
	}

	transformFn, err := getTransformFunction(vm)
	if err != nil {
		return nil, err
	}

	logger.Debug("script transform initialized",
		slog.Int("script_length", len(resolved)),
		slog.Bool("from_file", sourceFile != ""),
	)

	return &Transformer{
		source:      resolved,
		runtime:     vm,
		transformFn: transformFn,
	}, nil
}

// resolveSource returns the script source code, either inline or from file.
func resolveSource(source, sourceFile string) (string, error) {
	if source != "" && sourceFile != "" {
		return "", newScriptError(ErrCodeInvalidScriptFile, "cannot specify both 'script' and 'script_file' - use only one", 0, "", nil)
	}

	if source != "" {
		return source, nil
	}

	if sourceFile != "" {
		if err := pathutil.ValidateFilePath(sourceFile); err != nil {
			return "", newScriptError(ErrCodeInvalidScriptFile, fmt.Sprintf("invalid script_file path %q: %v", sourceFile, err), 0, "", err)
		}

		// Check file size before reading to avoid loading oversized scripts
		fileInfo, err := os.Stat(sourceFile)
		if err != nil {
			return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to stat script file %q: %v", sourceFile, err), 0, "", err)
		}
		if fileInfo.Size() > MaxScriptLength {
			return "", newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script file %q exceeds maximum length: %d bytes exceeds maximum %d bytes", sourceFile, fileInfo.Size(), MaxScriptLength), 0, "", nil)
		}

		file, err := os.Open(sourceFile)
		if err != nil {
			return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to open script file %q: %v", sourceFile, err), 0, "", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				logger.Warn("failed to close script file",
					slog.String("file", sourceFile),
					slog.String("error", closeErr.Error()),
				)
			}
		}()

		// Cap reading at MaxScriptLength+1 bytes in case the file grew
		// between Stat and Read
		limitedReader := io.LimitReader(file, MaxScriptLength+1)
		content, err := io.ReadAll(limitedReader)
		if err != nil {
			return "", newScriptError(ErrCodeScriptFileReadFailed, fmt.Sprintf("failed to read script file %q: %v", sourceFile, err), 0, "", err)
		}
		if len(content) > MaxScriptLength {
			return "", newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script file %q exceeds maximum length: file is larger than %d bytes", sourceFile, MaxScriptLength), 0, "", nil)
		}

		return string(content), nil
	}

	return "", newScriptError(ErrCodeScriptEmpty, "either 'script' or 'script_file' must be provided", 0, "", nil)
}

// validateScript validates the script is non-empty and within length limits.
func validateScript(script string) error {
	if len(script) == 0 || isWhitespaceOnly(script) {
		return newScriptError(ErrCodeScriptEmpty, "script cannot be empty", 0, "", ErrScriptEmpty)
	}
	if len(script) > MaxScriptLength {
		return newScriptError(ErrCodeScriptTooLong, fmt.Sprintf("script exceeds maximum length: %d bytes exceeds maximum %d bytes", len(script), MaxScriptLength), 0, "", ErrScriptTooLong)
	}
	return nil
}

// isWhitespaceOnly checks if a string contains only whitespace.
func isWhitespaceOnly(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// getTransformFunction retrieves and validates the transform function from the runtime.
func getTransformFunction(vm *goja.Runtime) (goja.Callable, error) {
	transformVal := vm.Get("transform")
	if transformVal == nil || goja.IsUndefined(transformVal) {
		return nil, newScriptError(ErrCodeMissingTransform, "transform function not found in script", 0, "", ErrMissingTransformFunc)
	}

	transformFn, ok := goja.AssertFunction(transformVal)
	if !ok {
		return nil, newScriptError(ErrCodeNotFunction, "transform is not a function", 0, "", ErrTransformNotFunction)
	}

	return transformFn, nil
}

// Transform applies the transform function to a single row. The line is
// the 1-based input line the row came from, used in error context.
//
// The returned row holds every own key of the object the script
// returned; each value is converted to cell text with JavaScript string
// semantics, so numbers come back as "5", booleans as "true", null as
// "null". The context is used to interrupt JavaScript execution if
// canceled.
func (t *Transformer) Transform(ctx context.Context, row delim.Row, line int) (delim.Row, error) {
	// Monitor context cancellation while JavaScript runs
	interruptDone := make(chan struct{})
	defer close(interruptDone)

	go func() {
		select {
		case <-ctx.Done():
			t.interruptMu.Lock()
			t.runtime.Interrupt(ctx.Err().Error())
			t.interruptMu.Unlock()
		case <-interruptDone:
			t.interruptMu.Lock()
			t.runtime.ClearInterrupt()
			t.interruptMu.Unlock()
		}
	}()

	// Hand the script its own copy so a failed transform cannot leave the
	// caller's row half-modified
	jsRow := make(map[string]interface{}, len(row))
	for name, value := range row {
		jsRow[name] = value
	}

	result, err := t.transformFn(goja.Undefined(), t.runtime.ToValue(jsRow))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, t.handleJSError(err, line)
	}

	t.interruptMu.Lock()
	t.runtime.ClearInterrupt()
	t.interruptMu.Unlock()

	return t.exportToRow(result, line)
}

// handleJSError converts a JavaScript error to a Go error with context.
func (t *Transformer) handleJSError(err error, line int) error {
	if jsErr, ok := err.(*goja.Exception); ok {
		stackTrace := ""
		if jsErr.Value() != nil {
			if obj, isObj := jsErr.Value().(*goja.Object); isObj {
				if stack := obj.Get("stack"); stack != nil && !goja.IsUndefined(stack) {
					stackTrace = stack.String()
				}
			}
		}

		message := fmt.Sprintf("script execution failed at line %d: %v", line, jsErr.Value())
		return newScriptError(ErrCodeExecutionFailed, message, line, stackTrace, err)
	}

	message := fmt.Sprintf("script execution failed at line %d: %v", line, err)
	return newScriptError(ErrCodeExecutionFailed, message, line, "", err)
}

// exportToRow converts the script's return value back to a row.
// The transform function must return an object, not a primitive or array.
func (t *Transformer) exportToRow(value goja.Value, line int) (delim.Row, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, newScriptError(ErrCodeExecutionFailed, fmt.Sprintf("script at line %d returned null or undefined - transform function must return an object", line), line, "", nil)
	}

	obj, ok := value.(*goja.Object)
	if !ok {
		return nil, newScriptError(ErrCodeExecutionFailed, fmt.Sprintf("script at line %d returned %s - transform function must return an object", line, value.ExportType()), line, "", nil)
	}

	if obj.ClassName() == "Array" {
		return nil, newScriptError(ErrCodeExecutionFailed, fmt.Sprintf("script at line %d returned an array - transform function must return an object, not an array", line), line, "", nil)
	}

	keys := obj.Keys()
	result := make(delim.Row, len(keys))
	for _, key := range keys {
		cell := obj.Get(key)
		if cell == nil {
			result[key] = ""
			continue
		}
		result[key] = cell.String()
	}

	return result, nil
}
