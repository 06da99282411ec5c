package source

import (
	"errors"
	"fmt"
)

// ErrorKind separates expected upstream flakiness from schema surprises.
// Both are recoverable from the worker's point of view; the distinction is
// for logging and diagnosis.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindParse     ErrorKind = "parse"
)

// UpstreamError marks a fetch failure as coming from the upstream source
// rather than from this process. The worker records these as a source
// failure and moves on instead of dead-lettering the message.
type UpstreamError struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream %s error: %v", e.Source, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewTransportError(source string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Kind: KindTransport, Err: err}
}

func NewParseError(source string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Kind: KindParse, Err: err}
}

// AsUpstream reports whether err is (or wraps) an upstream error.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	ok := errors.As(err, &ue)
	return ue, ok
}
