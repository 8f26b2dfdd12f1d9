package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors per the recovery policy: configuration
// and reference errors always propagate loudly, domain errors are rendered
// to the player by the command layer.
type ErrorKind string

const (
	// ErrorKindConfig marks malformed content: unknown actions, operators,
	// service functions, flows, or behavior package data.
	ErrorKindConfig ErrorKind = "config"
	// ErrorKindReference marks a missing variable or attribute during
	// resolution. Distinct from an object-not-found cache miss, which is a
	// legitimate non-error outcome.
	ErrorKindReference ErrorKind = "reference"
	// ErrorKindDomain marks caller-visible game outcomes (permission
	// denied, cancelled flows) rendered as a uniform failure message.
	ErrorKindDomain ErrorKind = "domain"
	// ErrorKindInternal marks engine bugs.
	ErrorKindInternal ErrorKind = "internal"
)

// ErrorCode identifies known engine error codes.
type ErrorCode string

const (
	CodeUnknownAction   ErrorCode = "UNKNOWN_ACTION"
	CodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"
	CodeUnknownService  ErrorCode = "UNKNOWN_SERVICE_FUNCTION"
	CodeUnknownFlow     ErrorCode = "UNKNOWN_FLOW"
	CodeUnknownPackage  ErrorCode = "UNKNOWN_PACKAGE"
	CodeBadParameter    ErrorCode = "BAD_PARAMETER"
	CodePackageData     ErrorCode = "PACKAGE_DATA_MISSING"

	CodeMissingVariable  ErrorCode = "MISSING_VARIABLE"
	CodeMissingAttribute ErrorCode = "MISSING_ATTRIBUTE"
	CodeObjectNotFound   ErrorCode = "OBJECT_NOT_FOUND"

	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeFlowCancelled    ErrorCode = "FLOW_CANCELLED"
)

// FlowError is the canonical error type propagated out of a flow execution.
type FlowError struct {
	Kind    ErrorKind
	Code    ErrorCode
	Message string
	Flow    string
	Step    int
	Cause   error
}

func (e *FlowError) Error() string {
	if e.Flow != "" {
		return fmt.Sprintf("[%s/%s] %s (flow: %s, step: %d)", e.Kind, e.Code, e.Message, e.Flow, e.Step)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Kind, e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Is matches FlowErrors by code so callers can use sentinels with errors.Is.
func (e *FlowError) Is(target error) bool {
	var fe *FlowError
	if !errors.As(target, &fe) {
		return false
	}
	return fe.Code == e.Code
}

func newError(kind ErrorKind, code ErrorCode, format string, args ...any) *FlowError {
	return &FlowError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Step: -1}
}

func configError(code ErrorCode, format string, args ...any) *FlowError {
	return newError(ErrorKindConfig, code, format, args...)
}

func referenceError(code ErrorCode, format string, args ...any) *FlowError {
	return newError(ErrorKindReference, code, format, args...)
}

func domainError(code ErrorCode, format string, args ...any) *FlowError {
	return newError(ErrorKindDomain, code, format, args...)
}

// atStep annotates an error with its flow and step position. Non-FlowErrors
// are wrapped as internal errors so the taxonomy stays closed.
func atStep(err error, flow string, step int) error {
	if err == nil {
		return nil
	}
	var fe *FlowError
	if errors.As(err, &fe) {
		if fe.Flow == "" {
			fe.Flow = flow
			fe.Step = step
		}
		return err
	}
	return &FlowError{
		Kind:    ErrorKindInternal,
		Code:    "RUNTIME_ERROR",
		Message: err.Error(),
		Flow:    flow,
		Step:    step,
		Cause:   err,
	}
}

// ErrPermissionDenied is the single caller-visible kind for denied game
// actions; the command layer renders one uniform message for it.
var ErrPermissionDenied = domainError(CodePermissionDenied, "permission denied")

// ErrFlowCancelled reports a cancel-flow signal to the caller.
var ErrFlowCancelled = domainError(CodeFlowCancelled, "flow cancelled")

// IsDomainError reports whether err is a caller-visible game outcome rather
// than a content or engine bug.
func IsDomainError(err error) bool {
	var fe *FlowError
	return errors.As(err, &fe) && fe.Kind == ErrorKindDomain
}
