// Package condition evaluates row predicates for extraction steps.
// Predicates are expr expressions compiled once per step and evaluated
// against each candidate row; the row is bound as `row`, so cells are
// reachable as row.STATUS or row['"CUSTOMER_CODE"'] when the column
// spelling carries literal quote characters.
package condition

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kostasandrews/ExtractorFileTool/internal/delim"
	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
)

// Error codes for condition evaluation
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
	ErrCodeNotBoolean        = "NOT_BOOLEAN"
)

// ErrInvalidExpression is returned when the expression syntax is invalid.
var ErrInvalidExpression = errors.New("invalid condition expression")

// Error handling modes applied when a predicate fails on a row.
const (
	OnErrorFail = "fail"
	OnErrorSkip = "skip"
)

// EvalError carries structured context for predicate evaluation failures.
type EvalError struct {
	Code       string
	Message    string
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	return e.Message
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func newEvalError(code, message, expression string, err error) *EvalError {
	return &EvalError{
		Code:       code,
		Message:    message,
		Expression: expression,
		Err:        err,
	}
}

// Predicate is a compiled row condition. A predicate with an empty
// expression accepts every row.
type Predicate struct {
	expression string
	onError    string
	program    *vm.Program
}

// New compiles the expression and returns a Predicate for it.
// An empty or whitespace-only expression yields an always-true predicate.
// onError selects what the caller should do when evaluation fails on a
// row: "fail" (default) or "skip".
func New(expression, onError string) (*Predicate, error) {
	hasExpression := len(expression) > 0 && !isWhitespaceOnly(expression)

	if onError == "" {
		onError = OnErrorFail
	}
	if onError != OnErrorFail && onError != OnErrorSkip {
		logger.Warn("invalid on_condition_error value; defaulting to fail",
			slog.String("on_condition_error", onError),
		)
		onError = OnErrorFail
	}

	// AllowUndefinedVariables handles references to columns the header
	// does not carry; they evaluate to nil rather than failing compile.
	var (
		program *vm.Program
		err     error
	)
	if hasExpression {
		program, err = expr.Compile(expression, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
		}
	}

	logger.Debug("condition compiled",
		slog.String("expression", expression),
		slog.String("on_error", onError),
	)

	return &Predicate{
		expression: expression,
		onError:    onError,
		program:    program,
	}, nil
}

// Eval evaluates the predicate against a row. The result must be a
// boolean; any other result type or an evaluation failure returns an
// *EvalError for the caller to handle per OnError.
func (p *Predicate) Eval(row delim.Row) (bool, error) {
	if p.program == nil {
		return true, nil
	}

	env := map[string]interface{}{"row": row}
	output, err := expr.Run(p.program, env)
	if err != nil {
		return false, newEvalError(
			ErrCodeEvaluationFailed,
			fmt.Sprintf("condition evaluation failed: %v", err),
			p.expression,
			err,
		)
	}

	result, ok := output.(bool)
	if !ok {
		return false, newEvalError(
			ErrCodeNotBoolean,
			fmt.Sprintf("condition returned %T, want boolean", output),
			p.expression,
			nil,
		)
	}

	return result, nil
}

// OnError reports the error handling mode for this predicate.
func (p *Predicate) OnError() string {
	return p.onError
}

// Expression returns the source expression.
func (p *Predicate) Expression() string {
	return p.expression
}

// isWhitespaceOnly checks if a string contains only whitespace characters.
func isWhitespaceOnly(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
