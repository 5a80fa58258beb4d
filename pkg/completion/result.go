package completion

import "fmt"

// FailureKind classifies why a completion did not produce a fix.
type FailureKind int

const (
	// Transport covers dial, DNS and timeout failures.
	Transport FailureKind = iota + 1
	// ProviderError covers non-2xx statuses and malformed bodies.
	ProviderError
	// EmptyResult is a well-formed response without a usable fix.
	EmptyResult
)

func (k FailureKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case ProviderError:
		return "provider_error"
	case EmptyResult:
		return "empty_result"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure describes a completion that did not succeed.
type Failure struct {
	Kind   FailureKind
	Detail string
	// Timeout is set for Transport failures caused by one of the timeout
	// budgets expiring.
	Timeout bool
	Err     error
}

// Result is either a fix text or a Failure, never both.
type Result struct {
	Text    string
	Failure *Failure
}

// OK reports whether the completion produced a fix.
func (r Result) OK() bool {
	return r.Failure == nil
}

func succeeded(text string) Result {
	return Result{Text: text}
}

func failed(kind FailureKind, detail string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail, Err: err}}
}
