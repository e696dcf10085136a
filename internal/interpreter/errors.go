package interpreter

import "fmt"

type ParseKind string

const (
	// KindEmptyResult: the backend answered but neither roles nor locations
	// could be extracted. The caller should rephrase the query.
	KindEmptyResult ParseKind = "empty_result"
	// KindBackendUnavailable: the provider call errored or timed out after
	// the single retry.
	KindBackendUnavailable ParseKind = "backend_unavailable"
	// KindMalformedResponse: the backend output could not be coerced into a
	// filter even after one corrective re-prompt.
	KindMalformedResponse ParseKind = "malformed_response"
)

// ParseError is the only error type Parse returns. It is recoverable by the
// caller re-submitting text; nothing here is job-fatal because no job exists
// yet at interpretation time.
type ParseError struct {
	Kind   ParseKind
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(kind ParseKind, detail string, err error) *ParseError {
	return &ParseError{Kind: kind, Detail: detail, Err: err}
}
