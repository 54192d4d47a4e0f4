// Package errors provides centralized error definitions and error handling utilities
// for the codewiki pipeline. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from specific pipeline stages:
//   - ClusteringError: the clustering response could not be turned into a grouping
//   - GenerationError: a module's documentation or overview could not be produced
//   - SubAgentError: a spawned sub-module agent failed (propagates to the spawner's caller)
//   - ArtifactError: reading or writing a persisted artifact failed
//   - ProjectionError: a projection could not be resolved or is invalid
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
//	err := errors.NewGenerationError("overview generation failed", errors.ErrEmptyContent).
//		WithModule([]string{"core", "parser"})
//
//	if errors.Is(err, errors.ErrEmptyContent) { ... }
//
//	var genErr *errors.GenerationError
//	if errors.As(err, &genErr) { log.Warn("skipping", "module", genErr.ModulePath()) }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that abort a whole run.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Clustering-related sentinel errors
var (
	// ErrGroupingMissing indicates the response had no grouping block.
	ErrGroupingMissing = New("grouping block missing from response")
	// ErrGroupingInvalid indicates the grouping block was not a valid grouping document.
	ErrGroupingInvalid = New("grouping block is not a valid grouping")
	// ErrPartitionViolated indicates the groups do not partition the input components.
	ErrPartitionViolated = New("groups do not partition the input components")
)

// Generation-related sentinel errors
var (
	// ErrEmptyResponse indicates the text-generation collaborator returned nothing.
	ErrEmptyResponse = New("empty response from text generation")
	// ErrEmptyContent indicates the extracted document body was empty.
	ErrEmptyContent = New("generated content is empty")
	// ErrUnknownComponent indicates a component id that is not in the graph.
	ErrUnknownComponent = New("unknown component")
	// ErrTurnLimit indicates an agent exhausted its turn budget.
	ErrTurnLimit = New("agent turn limit reached")
)

// Artifact-related sentinel errors
var (
	// ErrArtifactNotFound indicates a persisted artifact does not exist.
	ErrArtifactNotFound = New("artifact not found")
	// ErrArtifactCorrupted indicates an artifact could not be decoded.
	ErrArtifactCorrupted = New("artifact corrupted")
	// ErrDocsLocked indicates another run holds the docs directory lock.
	ErrDocsLocked = New("docs directory is locked by another run")
)

// Projection-related sentinel errors
var (
	// ErrUnknownProjection indicates a projection name that resolves to nothing.
	ErrUnknownProjection = New("unknown projection")
	// ErrInvalidProjection indicates a projection that failed validation.
	ErrInvalidProjection = New("invalid projection")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// CodewikiError is the base interface for all codewiki errors.
type CodewikiError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// FormatPath renders a module path the way logs and errors show it.
func FormatPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, "/")
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ClusteringError represents a clustering response that could not be parsed
// into a valid grouping.
//
// Example:
//
//	err := errors.NewClusteringError("grouping references unknown ids", errors.ErrPartitionViolated)
//	err = err.WithModule("core").WithResponse(raw)
//	fmt.Println(err) // "clustering error [module=core]: grouping references unknown ids: ..."
type ClusteringError struct {
	baseError
	Module   string
	Response string
}

// NewClusteringError creates a new ClusteringError.
func NewClusteringError(message string, cause error) *ClusteringError {
	return &ClusteringError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: true,
		},
	}
}

// WithModule records the module being subdivided ("" for the repository root).
func (e *ClusteringError) WithModule(name string) *ClusteringError {
	e.Module = name
	return e
}

// WithResponse keeps the raw response for diagnostics.
func (e *ClusteringError) WithResponse(resp string) *ClusteringError {
	e.Response = resp
	return e
}

// Error returns the formatted error message.
func (e *ClusteringError) Error() string {
	var parts []string
	if e.Module != "" {
		parts = append(parts, fmt.Sprintf("module=%s", e.Module))
	}
	return e.format("clustering error", parts)
}

// Is checks if this error matches the target.
func (e *ClusteringError) Is(target error) bool {
	if _, ok := target.(*ClusteringError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// GenerationError represents a failure to produce a module document or an
// overview. Every generation error carries the module path it failed on.
//
// Example:
//
//	err := errors.NewGenerationError("leaf documentation failed", cause).
//		WithModule([]string{"core", "parser"})
type GenerationError struct {
	baseError
	Path []string
	Root bool
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(message string, cause error) *GenerationError {
	return &GenerationError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: true,
		},
	}
}

// WithModule records the failing module path. The slice is copied.
func (e *GenerationError) WithModule(path []string) *GenerationError {
	e.Path = append([]string(nil), path...)
	return e
}

// WithRoot marks the failure as belonging to the repository overview, which
// aborts the run.
func (e *GenerationError) WithRoot() *GenerationError {
	e.Root = true
	e.severity = SeverityCritical
	return e
}

// ModulePath returns the failing module path in display form.
func (e *GenerationError) ModulePath() string {
	if e.Root {
		return "<root>"
	}
	return FormatPath(e.Path)
}

// Error returns the formatted error message.
func (e *GenerationError) Error() string {
	var parts []string
	if e.Root || len(e.Path) > 0 {
		parts = append(parts, fmt.Sprintf("module=%s", e.ModulePath()))
	}
	return e.format("generation error", parts)
}

// Is checks if this error matches the target.
func (e *GenerationError) Is(target error) bool {
	if _, ok := target.(*GenerationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SubAgentError represents the failure of a spawned sub-module agent. It is
// returned to the spawning agent unchanged so the whole spawn fails fast.
type SubAgentError struct {
	baseError
	Path  []string
	Depth int
}

// NewSubAgentError creates a new SubAgentError.
func NewSubAgentError(message string, cause error) *SubAgentError {
	return &SubAgentError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
		Depth: -1,
	}
}

// WithModule records the sub-module path. The slice is copied.
func (e *SubAgentError) WithModule(path []string) *SubAgentError {
	e.Path = append([]string(nil), path...)
	return e
}

// WithDepth records the depth the sub-agent ran at.
func (e *SubAgentError) WithDepth(depth int) *SubAgentError {
	e.Depth = depth
	return e
}

// Error returns the formatted error message.
func (e *SubAgentError) Error() string {
	var parts []string
	if len(e.Path) > 0 {
		parts = append(parts, fmt.Sprintf("module=%s", FormatPath(e.Path)))
	}
	if e.Depth >= 0 {
		parts = append(parts, fmt.Sprintf("depth=%d", e.Depth))
	}
	return e.format("sub-agent error", parts)
}

// Is checks if this error matches the target.
func (e *SubAgentError) Is(target error) bool {
	if _, ok := target.(*SubAgentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ArtifactError represents a failure reading or writing a persisted artifact.
type ArtifactError struct {
	baseError
	Path string
}

// NewArtifactError creates a new ArtifactError.
func NewArtifactError(message string, cause error) *ArtifactError {
	return &ArtifactError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
	}
}

// WithPath records the artifact path.
func (e *ArtifactError) WithPath(path string) *ArtifactError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ArtifactError) Error() string {
	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("artifact error", parts)
}

// Is checks if this error matches the target.
func (e *ArtifactError) Is(target error) bool {
	if _, ok := target.(*ArtifactError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ProjectionError represents a projection that could not be resolved or
// failed validation. Problems holds every validation message found.
type ProjectionError struct {
	baseError
	Source   string
	Problems []string
}

// NewProjectionError creates a new ProjectionError.
func NewProjectionError(message string, cause error) *ProjectionError {
	return &ProjectionError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
	}
}

// WithSource records where the projection came from.
func (e *ProjectionError) WithSource(source string) *ProjectionError {
	e.Source = source
	return e
}

// WithProblems attaches validation problems.
func (e *ProjectionError) WithProblems(problems []string) *ProjectionError {
	e.Problems = append([]string(nil), problems...)
	return e
}

// Error returns the formatted error message.
func (e *ProjectionError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	msg := e.format("projection error", parts)
	if len(e.Problems) > 0 {
		msg += "\n  - " + strings.Join(e.Problems, "\n  - ")
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ProjectionError) Is(target error) bool {
	if _, ok := target.(*ProjectionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("component", "pkg/foo.go::Bar")
//	fmt.Println(err) // "component 'pkg/foo.go::Bar' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:   fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:  SeverityWarning,
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("max depth must be positive")
//	err = err.WithField("max_depth_override").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			severity:  SeverityWarning,
			retryable: false,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cwErr CodewikiError
	if As(err, &cwErr) {
		return cwErr.IsRetryable()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement CodewikiError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var cwErr CodewikiError
	if As(err, &cwErr) {
		return cwErr.Severity()
	}
	return SeverityError
}

// IsFatal reports whether the error must abort a generation run. Only the
// repository overview failure and cancellation are fatal; per-module failures
// are logged and skipped.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrCanceled) || Is(err, context.Canceled) {
		return true
	}
	var genErr *GenerationError
	if As(err, &genErr) && genErr.Root {
		return true
	}
	return GetSeverity(err) == SeverityCritical
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
