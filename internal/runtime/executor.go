// Package runtime provides the extraction plan execution engine.
// It seeds the key set from the sample file, then runs the plan's steps
// strictly in order, filtering each input by key membership and growing
// the key set from harvested columns.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kostasandrews/ExtractorFileTool/internal/condition"
	"github.com/kostasandrews/ExtractorFileTool/internal/delim"
	"github.com/kostasandrews/ExtractorFileTool/internal/errhandling"
	"github.com/kostasandrews/ExtractorFileTool/internal/keyset"
	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
	"github.com/kostasandrews/ExtractorFileTool/internal/pathutil"
	"github.com/kostasandrews/ExtractorFileTool/internal/script"
	"github.com/kostasandrews/ExtractorFileTool/pkg/extraction"
)

// Error codes for run failures
const (
	ErrCodeInvalidPlan     = "INVALID_PLAN"
	ErrCodeSeedFailed      = "SEED_FAILED"
	ErrCodeNormalizeFailed = "NORMALIZE_FAILED"
	ErrCodeStepFailed      = "STEP_FAILED"
	ErrCodeRunCanceled     = "RUN_CANCELED"
)

// ctxCheckInterval is how many rows pass between context checks.
const ctxCheckInterval = 100

// ErrNilPlan is returned when the extraction plan is nil.
var ErrNilPlan = errors.New("extraction plan is nil")

// Executor runs an extraction plan. It owns the key set for the run:
// seeding happens at construction, membership tests during each step use
// the set as it existed when the step started, and a step's harvested
// keys are merged only after the step completes.
//
// An Executor is built for a single run; create a new one per Run call.
type Executor struct {
	plan            *extraction.Plan
	planPath        string
	dryRun          bool
	normalizeQuotes bool
	runID           string
	keys            *keyset.Set
	keysSeeded      int
	predicates      []*condition.Predicate
	transforms      []*script.Transformer
}

// Options configures an Executor.
type Options struct {
	// PlanPath is the plan file path recorded in results and logs
	PlanPath string
	// DryRun performs the full read/filter/harvest pass without writing
	// any output files
	DryRun bool
	// NormalizeQuotes rewrites every step input before the run, folding
	// apostrophes and typographic quotes into the standard quote
	NormalizeQuotes bool
}

// NewExecutor validates the plan, compiles per-step conditions and
// scripts, and seeds the key set from the sample file. All failures at
// this stage are configuration errors.
func NewExecutor(plan *extraction.Plan, opts Options) (*Executor, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	e := &Executor{
		plan:            plan,
		planPath:        opts.PlanPath,
		dryRun:          opts.DryRun,
		normalizeQuotes: opts.NormalizeQuotes || plan.Main.NormalizeQuotes,
		runID:           uuid.New().String(),
		keys:            keyset.New(),
	}

	if err := e.compileSteps(); err != nil {
		return nil, err
	}
	if err := e.seed(); err != nil {
		return nil, err
	}

	return e, nil
}

// RunID returns the unique identifier assigned to this run.
func (e *Executor) RunID() string {
	return e.runID
}

// validatePlan checks the plan structurally before any file is touched.
func validatePlan(plan *extraction.Plan) error {
	if plan == nil {
		return errhandling.NewConfigurationError("extraction plan is nil", ErrNilPlan)
	}
	if plan.Main.SampleFile == "" {
		return errhandling.NewConfigurationError("main.sample_filename is required", nil)
	}
	if plan.Main.KeyColumn == "" {
		return errhandling.NewConfigurationError("main.main_key_column is required", nil)
	}
	if len(plan.Steps) == 0 {
		return errhandling.NewConfigurationError("extraction_info must contain at least one step", nil)
	}

	for i, step := range plan.Steps {
		if step.Input == "" {
			return errhandling.NewConfigurationError(fmt.Sprintf("step %d: input is required", i), nil)
		}
		if step.Output == "" {
			return errhandling.NewConfigurationError(fmt.Sprintf("step %d: output is required", i), nil)
		}
		if step.KeyColumn == "" {
			return errhandling.NewConfigurationError(fmt.Sprintf("step %d: key_column is required", i), nil)
		}
		if err := pathutil.ValidateFilePath(step.Output); err != nil {
			return errhandling.NewConfigurationError(fmt.Sprintf("step %d: invalid output path %q", i, step.Output), err)
		}
	}

	return nil
}

// compileSteps builds the per-step predicates and script transforms.
func (e *Executor) compileSteps() error {
	e.predicates = make([]*condition.Predicate, len(e.plan.Steps))
	e.transforms = make([]*script.Transformer, len(e.plan.Steps))

	for i, step := range e.plan.Steps {
		if step.Condition != "" {
			pred, err := condition.New(step.Condition, step.OnConditionError)
			if err != nil {
				return errhandling.NewConfigurationError(fmt.Sprintf("step %d: invalid condition", i), err)
			}
			e.predicates[i] = pred
		}

		if step.Script != "" || step.ScriptFile != "" {
			transform, err := script.New(step.Script, step.ScriptFile)
			if err != nil {
				return errhandling.NewConfigurationError(fmt.Sprintf("step %d: invalid script", i), err)
			}
			e.transforms[i] = transform
		}
	}

	return nil
}

// seed reads the sample file and fills the key set with the distinct
// non-empty values of the main key column.
func (e *Executor) seed() error {
	sampleFile := e.plan.Main.SampleFile
	keyColumn := e.plan.Main.KeyColumn

	f, err := os.Open(sampleFile)
	if err != nil {
		return errhandling.NewConfigurationError(fmt.Sprintf("opening sample file %q", sampleFile), err)
	}
	defer e.closeFile(sampleFile, f)

	r := delim.NewReader(f)
	if err := r.Err(); err != nil {
		return errhandling.NewConfigurationError(fmt.Sprintf("reading sample file %q", sampleFile), err)
	}
	if r.Header() == nil {
		return errhandling.NewConfigurationError(fmt.Sprintf("sample file %q is empty", sampleFile), nil)
	}
	if !r.HasColumn(keyColumn) {
		return errhandling.NewConfigurationError(fmt.Sprintf("sample file %q has no column %q", sampleFile, keyColumn), nil)
	}

	for r.Scan() {
		row, ok := r.Row()
		if !ok {
			logger.Warn("skipping malformed sample row",
				slog.String("run_id", e.runID),
				slog.String("file", sampleFile),
				slog.Int("line", r.Line()),
				slog.Int("cells", len(r.Cells())),
				slog.Int("columns", len(r.Header())),
			)
			continue
		}
		e.keys.Add(row[keyColumn])
	}
	if err := r.Err(); err != nil {
		return errhandling.NewConfigurationError(fmt.Sprintf("reading sample file %q", sampleFile), err)
	}

	e.keysSeeded = e.keys.Len()
	logger.LogSeed(e.runContext(errhandling.NoStep), sampleFile, e.keysSeeded)
	return nil
}

// Run executes the plan's steps strictly in order and returns the run
// result. The result is returned alongside the error on failure, with
// partial step results and error details filled in.
func (e *Executor) Run(ctx context.Context) (*extraction.RunResult, error) {
	startedAt := time.Now()
	result := &extraction.RunResult{
		RunID:      e.runID,
		PlanPath:   e.planPath,
		Status:     extraction.StatusError,
		DryRun:     e.dryRun,
		StartedAt:  startedAt,
		KeysSeeded: e.keysSeeded,
	}

	runCtx := e.runContext(errhandling.NoStep)
	logger.LogRunStart(runCtx, len(e.plan.Steps))

	if e.normalizeQuotes {
		if err := e.normalizeInputs(); err != nil {
			return e.finishError(result, runCtx, startedAt, ErrCodeNormalizeFailed, err)
		}
	}

	for i, step := range e.plan.Steps {
		if err := ctx.Err(); err != nil {
			return e.finishError(result, runCtx, startedAt, ErrCodeRunCanceled, err)
		}

		stepRes, err := e.runStep(ctx, i, step)
		result.Steps = append(result.Steps, stepRes)
		if err != nil {
			code := ErrCodeStepFailed
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				code = ErrCodeRunCanceled
			}
			return e.finishError(result, runCtx, startedAt, code, err)
		}
	}

	result.Status = extraction.StatusSuccess
	result.CompletedAt = time.Now()
	result.KeysFinal = e.keys.Len()

	totalDuration := time.Since(startedAt)
	logger.LogRunEnd(runCtx, extraction.StatusSuccess, totalRowsKept(result), totalDuration)
	logger.LogRunMetrics(runCtx, buildMetrics(result, totalDuration))

	return result, nil
}

// normalizeInputs rewrites each distinct step input folding typographic
// quote characters into the standard quote. Skipped in dry-run mode
// since it mutates the input files.
func (e *Executor) normalizeInputs() error {
	if e.dryRun {
		logger.Info("dry-run mode: skipping quote normalization",
			slog.String("run_id", e.runID),
		)
		return nil
	}

	done := make(map[string]bool, len(e.plan.Steps))
	for i, step := range e.plan.Steps {
		if done[step.Input] {
			continue
		}
		done[step.Input] = true

		if err := delim.NormalizeQuotes(step.Input); err != nil {
			return errhandling.NewExtractionError(i, step.Input, "normalizing quotes in input", err)
		}
		logger.Debug("input quotes normalized",
			slog.String("run_id", e.runID),
			slog.String("file", step.Input),
		)
	}

	return nil
}

// runStep executes one step and reports its result. The step's harvested
// keys are merged into the run's key set only after the step completes
// without error.
func (e *Executor) runStep(ctx context.Context, index int, step extraction.Step) (extraction.StepResult, error) {
	stepCtx := e.stepContext(index, step)
	logger.LogStepStart(stepCtx)

	stepStart := time.Now()
	res := extraction.StepResult{
		Index:  index,
		Input:  step.Input,
		Output: step.Output,
	}

	err := e.extractStep(ctx, index, step, &res)
	res.Duration = time.Since(stepStart)

	if err != nil {
		logger.LogStepEnd(stepCtx, res.RowsRead, res.RowsKept, res.KeysAdded, res.Duration, stepErrorCode(err), err.Error())
		return res, err
	}

	logger.LogStepEnd(stepCtx, res.RowsRead, res.RowsKept, res.KeysAdded, res.Duration, "", "")
	return res, nil
}

// extractStep does the step's work: filter the input by key membership,
// apply the optional condition and script, write kept rows, and harvest
// relevant keys into a pending set merged at the end.
func (e *Executor) extractStep(ctx context.Context, index int, step extraction.Step, res *extraction.StepResult) error {
	in, err := os.Open(step.Input)
	if err != nil {
		return errhandling.NewExtractionError(index, step.Input, "opening input file", err)
	}
	defer e.closeFile(step.Input, in)

	r := delim.NewReader(in)
	if err := r.Err(); err != nil {
		return errhandling.NewExtractionError(index, step.Input, "reading input file", err)
	}
	if r.Header() == nil {
		return errhandling.NewDataFormatError(index, step.Input, "", "input file is empty")
	}
	if !r.HasColumn(step.KeyColumn) {
		return errhandling.NewDataFormatError(index, step.Input, step.KeyColumn, "key column not found in header")
	}

	var (
		out *os.File
		w   *delim.Writer
	)
	if !e.dryRun {
		if err := pathutil.EnsureParentDir(step.Output); err != nil {
			return errhandling.NewExtractionError(index, step.Output, "creating output directory", err)
		}
		out, err = os.Create(step.Output)
		if err != nil {
			return errhandling.NewExtractionError(index, step.Output, "creating output file", err)
		}
		defer func() {
			if out != nil {
				e.closeFile(step.Output, out)
			}
		}()

		w = delim.NewWriter(out, r.Header())
		if err := w.WriteHeader(); err != nil {
			return errhandling.NewExtractionError(index, step.Output, "writing output header", err)
		}
	}

	pred := e.predicates[index]
	transform := e.transforms[index]
	pending := keyset.New()

	for r.Scan() {
		res.RowsRead++
		if res.RowsRead%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row, ok := r.Row()
		if !ok {
			logger.Warn("skipping malformed row",
				slog.String("run_id", e.runID),
				slog.Int("step_index", index),
				slog.String("file", step.Input),
				slog.Int("line", r.Line()),
				slog.Int("cells", len(r.Cells())),
				slog.Int("columns", len(r.Header())),
			)
			res.RowsSkipped++
			continue
		}

		// Membership is tested against the key set as it existed when the
		// step started; this step's own harvest is in pending only.
		if !e.keys.Has(row[step.KeyColumn]) {
			continue
		}

		if pred != nil {
			pass, evalErr := pred.Eval(row)
			if evalErr != nil {
				if pred.OnError() == condition.OnErrorSkip {
					logger.Warn("skipping row after condition error",
						slog.String("run_id", e.runID),
						slog.Int("step_index", index),
						slog.Int("line", r.Line()),
						slog.String("error", evalErr.Error()),
					)
					continue
				}
				return &errhandling.PipelineError{
					Category:    errhandling.CategoryDataFormat,
					StepIndex:   index,
					Path:        step.Input,
					Message:     fmt.Sprintf("condition failed at line %d", r.Line()),
					OriginalErr: evalErr,
				}
			}
			if !pass {
				continue
			}
		}

		if transform != nil {
			row, err = transform.Transform(ctx, row, r.Line())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errhandling.NewExtractionError(index, step.Input, fmt.Sprintf("script transform failed at line %d", r.Line()), err)
			}
		}

		res.RowsKept++

		if w != nil {
			if err := w.WriteRow(row); err != nil {
				return errhandling.ClassifyStepError(index, step.Output, err)
			}
		}

		for _, column := range step.RelevantKeys {
			if value, ok := row[column]; ok {
				pending.Add(value)
			}
		}
	}
	if err := r.Err(); err != nil {
		return errhandling.NewExtractionError(index, step.Input, "reading input file", err)
	}

	if w != nil {
		if err := w.Flush(); err != nil {
			return errhandling.NewExtractionError(index, step.Output, "flushing output file", err)
		}
		closeErr := out.Close()
		out = nil
		if closeErr != nil {
			return errhandling.NewExtractionError(index, step.Output, "closing output file", closeErr)
		}
	}

	res.KeysAdded = e.keys.Merge(pending)
	return nil
}

// finishError finalizes the result for a failed run and logs the failure.
func (e *Executor) finishError(result *extraction.RunResult, runCtx logger.RunContext, startedAt time.Time, code string, err error) (*extraction.RunResult, error) {
	result.CompletedAt = time.Now()
	result.KeysFinal = e.keys.Len()
	result.Error = buildRunError(code, err)

	errCtx := logger.ErrorContext{
		RunID:        e.runID,
		PlanPath:     e.planPath,
		StepIndex:    result.Error.StepIndex,
		ErrorCode:    code,
		ErrorMessage: err.Error(),
		Err:          err,
		Path:         result.Error.Path,
	}
	var perr *errhandling.PipelineError
	if errors.As(err, &perr) {
		errCtx.Column = perr.Column
	}
	logger.LogError("extraction run failed", errCtx)
	logger.LogRunEnd(runCtx, extraction.StatusError, totalRowsKept(result), time.Since(startedAt))

	return result, err
}

// buildRunError converts an error into the result's error details.
func buildRunError(code string, err error) *extraction.RunError {
	runErr := &extraction.RunError{
		Code:      code,
		Category:  string(errhandling.GetErrorCategory(err)),
		Message:   err.Error(),
		StepIndex: errhandling.NoStep,
	}

	var perr *errhandling.PipelineError
	if errors.As(err, &perr) {
		runErr.StepIndex = perr.StepIndex
		runErr.Path = perr.Path
	}

	return runErr
}

// stepErrorCode picks the step-level error code for logging.
func stepErrorCode(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeRunCanceled
	}
	return ErrCodeStepFailed
}

// totalRowsKept sums the kept rows across all executed steps.
func totalRowsKept(result *extraction.RunResult) int {
	total := 0
	for _, s := range result.Steps {
		total += s.RowsKept
	}
	return total
}

// buildMetrics aggregates per-step counters into run metrics.
func buildMetrics(result *extraction.RunResult, total time.Duration) logger.RunMetrics {
	m := logger.RunMetrics{
		TotalDuration: total,
		KeysSeeded:    result.KeysSeeded,
		KeysFinal:     result.KeysFinal,
	}
	for _, s := range result.Steps {
		m.RowsRead += s.RowsRead
		m.RowsKept += s.RowsKept
		m.RowsSkipped += s.RowsSkipped
	}
	if m.RowsRead > 0 && total > 0 {
		m.RowsPerSecond = float64(m.RowsRead) / total.Seconds()
	}
	return m
}

// runContext builds the logging context for run-level events.
func (e *Executor) runContext(stepIndex int) logger.RunContext {
	return logger.RunContext{
		RunID:     e.runID,
		PlanPath:  e.planPath,
		StepIndex: stepIndex,
		DryRun:    e.dryRun,
	}
}

// stepContext builds the logging context for step-level events.
func (e *Executor) stepContext(index int, step extraction.Step) logger.RunContext {
	ctx := e.runContext(index)
	ctx.Input = step.Input
	ctx.Output = step.Output
	return ctx
}

// closeFile closes a file and logs any error.
func (e *Executor) closeFile(path string, f *os.File) {
	if err := f.Close(); err != nil {
		logger.Warn("failed to close file",
			slog.String("run_id", e.runID),
			slog.String("file", path),
			slog.String("error", err.Error()),
		)
	}
}
