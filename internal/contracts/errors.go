package contracts

import "errors"

// Pipeline failure kinds. Every failure aborts the current call and is
// surfaced wrapped with operation context; match with errors.Is.
// Transport failures live in pkg/httputil (httputil.ErrTransport).
var (
	// ErrInvalidArgument is returned before any network call for bad input such as an unknown period
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyResult is returned when a ranking source yields no candidate rows
	ErrEmptyResult = errors.New("empty result")

	// ErrTimeout is returned when a page marker is not observed within the wait bound
	ErrTimeout = errors.New("timeout")

	// ErrParse is returned when an expected document structure is absent or malformed
	ErrParse = errors.New("parse error")
)
