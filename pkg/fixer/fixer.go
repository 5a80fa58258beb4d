// Package fixer runs a fix request through validation, file access, text
// optimization and the completion provider, and turns the result into an
// Outcome.
package fixer

import (
	"context"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/completion"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fileaccess"
	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/optimizer"
)

// Files locates and reads source files under the root.
type Files interface {
	Locate(relativePath string) fileaccess.Location
	Read(absolutePath string) (string, error)
}

// Completer produces a fixed version of code.
type Completer interface {
	Complete(ctx context.Context, bugDescription, code, filePath string) completion.Result
}

// Stage is a step of the fix pipeline, logged when a request fails.
type Stage string

const (
	StageValidating Stage = "validating"
	StageLocating   Stage = "locating"
	StageReading    Stage = "reading"
	StageOptimizing Stage = "optimizing"
	StageCompleting Stage = "completing"
	StageDone       Stage = "done"
)

// Service is safe for concurrent use when its collaborators are.
type Service struct {
	files     Files
	completer Completer
	maxChars  int
	metrics   *Metrics
	logger    zerolog.Logger
}

// New creates a Service. maxChars bounds the optimized source sent to the
// provider; metrics may be nil.
func New(files Files, completer Completer, maxChars int, metrics *Metrics, logger zerolog.Logger) *Service {
	return &Service{
		files:     files,
		completer: completer,
		maxChars:  maxChars,
		metrics:   metrics,
		logger:    logger.With().Str("component", "fixer").Logger(),
	}
}

// FixCode never panics; any unexpected failure becomes an InternalError.
func (s *Service) FixCode(ctx context.Context, req Request) (outcome Outcome) {
	start := time.Now()
	stage := StageValidating
	logger := s.logger.With().
		Str("fix_id", uuid.NewString()).
		Str("file", req.FilePath).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stage", string(stage)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while fixing code")
			outcome = Failed(InternalError, InternalErrorMessage)
		}
		s.metrics.observeOutcome(outcome, time.Since(start))

		if outcome.OK() {
			logger.Info().
				Str("stage", string(stage)).
				Dur("duration", time.Since(start)).
				Msg("Code successfully fixed")
			return
		}
		logger.Warn().
			Str("stage", string(stage)).
			Str("reason", outcome.Failure.Reason.String()).
			Str("detail", outcome.Failure.Detail).
			Dur("duration", time.Since(start)).
			Msg("Fix request failed")
	}()

	logger.Info().Msg("Processing fix request")

	if errs := req.Validate(); len(errs) > 0 {
		return Failed(InvalidInput, validationDetail(errs))
	}

	stage = StageLocating
	loc := s.files.Locate(req.FilePath)
	if loc.Status != fileaccess.Found {
		logger.Debug().Str("status", loc.Status.String()).Msg("File could not be located")
		return Failed(FileNotFound, "File not found: "+req.FilePath)
	}

	stage = StageReading
	original, err := s.files.Read(loc.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Error reading file")
		return Failed(FileReadFailed, "Failed to read file: "+req.FilePath)
	}

	stage = StageOptimizing
	optimized := optimizer.Optimize(original, s.maxChars)
	originalChars, optimizedChars := utf8.RuneCountInString(original), utf8.RuneCountInString(optimized)
	s.metrics.observeSource(originalChars, optimizedChars)
	logger.Info().
		Int("original_chars", originalChars).
		Int("optimized_chars", optimizedChars).
		Float64("ratio", ratio(optimizedChars, originalChars)).
		Msg("Code optimized")

	stage = StageCompleting
	result := s.completer.Complete(ctx, req.BugDescription, optimized, req.FilePath)
	if !result.OK() {
		return Upstream(result.Failure)
	}

	stage = StageDone
	return Succeeded(result.Text)
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 1
	}
	return float64(part) / float64(whole)
}
