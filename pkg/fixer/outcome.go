package fixer

import (
	"fmt"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/completion"
)

// FailureKind is the reason a fix request failed.
type FailureKind int

const (
	InvalidInput FailureKind = iota + 1
	FileNotFound
	FileReadFailed
	UpstreamFailed
	InternalError
)

func (k FailureKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case FileNotFound:
		return "file_not_found"
	case FileReadFailed:
		return "file_read_failed"
	case UpstreamFailed:
		return "upstream_failed"
	case InternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// InternalErrorMessage is the only detail an InternalError carries.
const InternalErrorMessage = "Internal server error"

// Failure is a terminal failure of a fix request.
type Failure struct {
	Reason FailureKind
	Detail string
	// Upstream and Timeout are only set when Reason is UpstreamFailed.
	Upstream completion.FailureKind
	Timeout  bool
}

// Outcome is the result of FixCode: FixedCode on success, Failure otherwise.
type Outcome struct {
	FixedCode string
	Failure   *Failure
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Label is the value used for the outcome metric label.
func (o Outcome) Label() string {
	if o.OK() {
		return "success"
	}
	return o.Failure.Reason.String()
}

func Succeeded(fixedCode string) Outcome {
	return Outcome{FixedCode: fixedCode}
}

func Failed(reason FailureKind, detail string) Outcome {
	return Outcome{Failure: &Failure{Reason: reason, Detail: detail}}
}

// Upstream wraps a completion failure.
func Upstream(f *completion.Failure) Outcome {
	return Outcome{Failure: &Failure{
		Reason:   UpstreamFailed,
		Detail:   "Failed to get fixed code from AI service: " + f.Detail,
		Upstream: f.Kind,
		Timeout:  f.Timeout,
	}}
}
