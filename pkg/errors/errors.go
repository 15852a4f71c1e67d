package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the failure class exposed to callers.
type Kind string

const (
	KindInvalidVideoReference     Kind = "InvalidVideoReference"
	KindLearningIntentionTooShort Kind = "LearningIntentionTooShort"
	KindTranscriptUnavailable     Kind = "TranscriptUnavailable"
	KindModelUnavailable          Kind = "ModelUnavailable"
	KindAnalysisTimeout           Kind = "AnalysisTimeout"
	KindAnalysisInProgress        Kind = "AnalysisInProgress"
	KindInternal                  Kind = "InternalError"
)

// AnalysisError is the error type surfaced by the analysis pipeline.
type AnalysisError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

func (e *AnalysisError) WithCause(cause error) *AnalysisError {
	e.Cause = cause
	return e
}

func newError(kind Kind, statusCode int, message string) *AnalysisError {
	return &AnalysisError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
	}
}

func NewInvalidVideoReference(url string) *AnalysisError {
	return newError(KindInvalidVideoReference, 400,
		fmt.Sprintf("unrecognized video URL: %q", url))
}

func NewIntentionTooShort(length, min int) *AnalysisError {
	return newError(KindLearningIntentionTooShort, 400,
		fmt.Sprintf("learning intention is %d characters, minimum is %d", length, min))
}

func NewTranscriptUnavailable(message string) *AnalysisError {
	return newError(KindTranscriptUnavailable, 422, message)
}

func NewModelUnavailable(message string) *AnalysisError {
	return newError(KindModelUnavailable, 502, message)
}

func NewAnalysisTimeout(message string) *AnalysisError {
	return newError(KindAnalysisTimeout, 504, message)
}

func NewAnalysisInProgress() *AnalysisError {
	return newError(KindAnalysisInProgress, 409,
		"an analysis for this video and intention is already running; try again once it finishes")
}

func NewInternal(message string) *AnalysisError {
	return newError(KindInternal, 500, message)
}

// KindOf extracts the Kind from an error chain, or KindInternal when the
// error is not an AnalysisError.
func KindOf(err error) Kind {
	var ae *AnalysisError
	if stderrors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status associated with an error chain.
func StatusOf(err error) int {
	var ae *AnalysisError
	if stderrors.As(err, &ae) {
		return ae.StatusCode
	}
	return 500
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
