// Package errors provides the structured error type used for configuration,
// setup and infrastructure failures. Per-request fix failures are not errors;
// they travel as fixer.Outcome values.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"
	CodeIOError              ErrorCode = "IO_ERROR"
	CodeFileNotFound         ErrorCode = "FILE_NOT_FOUND"
	CodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	CodeNetworkError         ErrorCode = "NETWORK_ERROR"
	CodeNetworkTimeout       ErrorCode = "NETWORK_TIMEOUT"
	CodeProviderError        ErrorCode = "PROVIDER_ERROR"
	CodeEncodingError        ErrorCode = "ENCODING_ERROR"
)

// ErrorType categorizes the error
type ErrorType string

const (
	ErrTypeInternal      ErrorType = "internal"
	ErrTypeConfiguration ErrorType = "configuration"
	ErrTypeIO            ErrorType = "io"
	ErrTypeNetwork       ErrorType = "network"
	ErrTypeExternal      ErrorType = "external"
)

// RichError carries a code, a component and free-form context next to the
// wrapped cause.
type RichError struct {
	Code      ErrorCode              `json:"code"`
	Type      ErrorType              `json:"type"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *RichError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Component != "" {
		sb.WriteString(fmt.Sprintf(" (component: %s)", e.Component))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" - caused by: %v", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the cause of the error
func (e *RichError) Unwrap() error {
	return e.Cause
}

// New is the short form used at call sites that only need code, component,
// message and cause.
func New(code ErrorCode, component, message string, cause error) *RichError {
	return NewError().Code(code).Component(component).Message(message).Cause(cause).Build()
}

// ErrorBuilder provides a fluent API for constructing RichError instances
type ErrorBuilder struct {
	err *RichError
}

// NewError creates a new error builder
func NewError() *ErrorBuilder {
	return &ErrorBuilder{
		err: &RichError{
			Code: CodeInternalError,
			Type: ErrTypeInternal,
		},
	}
}

func (b *ErrorBuilder) Code(code ErrorCode) *ErrorBuilder {
	b.err.Code = code
	return b
}

func (b *ErrorBuilder) Type(errType ErrorType) *ErrorBuilder {
	b.err.Type = errType
	return b
}

func (b *ErrorBuilder) Component(component string) *ErrorBuilder {
	b.err.Component = component
	return b
}

func (b *ErrorBuilder) Message(message string) *ErrorBuilder {
	b.err.Message = message
	return b
}

// Messagef sets a formatted message. A %w argument also becomes the cause.
func (b *ErrorBuilder) Messagef(format string, args ...interface{}) *ErrorBuilder {
	if strings.Contains(format, "%w") {
		for _, arg := range args {
			if err, ok := arg.(error); ok {
				b.err.Cause = err
				format = strings.ReplaceAll(format, "%w", "%v")
				break
			}
		}
	}
	b.err.Message = fmt.Sprintf(format, args...)
	return b
}

// Context adds a context key-value pair
func (b *ErrorBuilder) Context(key string, value interface{}) *ErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed RichError
func (b *ErrorBuilder) Build() *RichError {
	return b.err
}

// ConfigError reports an invalid or unreadable configuration source.
func ConfigError(message string, cause error) *RichError {
	return NewError().
		Code(CodeConfigurationInvalid).
		Type(ErrTypeConfiguration).
		Component("config").
		Message(message).
		Cause(cause).
		Build()
}

// IOError reports a filesystem failure for path.
func IOError(component, path string, cause error) *RichError {
	code := CodeIOError
	switch {
	case errors.Is(cause, fs.ErrNotExist):
		code = CodeFileNotFound
	case errors.Is(cause, fs.ErrPermission):
		code = CodePermissionDenied
	}
	return NewError().
		Code(code).
		Type(ErrTypeIO).
		Component(component).
		Messagef("failed to read %s", path).
		Context("path", path).
		Cause(cause).
		Build()
}

// CodeOf returns the code of the first RichError in err's chain, or
// CodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var rich *RichError
	if errors.As(err, &rich) {
		return rich.Code
	}
	return CodeInternalError
}
