// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package besteffort

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed client operation.
type FailureKind string

const (
	// KindDisabled means the client is missing required configuration
	// and made no request.
	KindDisabled FailureKind = "disabled"

	// KindInvalid means the caller's input failed validation before
	// any request was made.
	KindInvalid FailureKind = "invalid"

	// KindEncode means the request body could not be serialized.
	KindEncode FailureKind = "encode"

	// KindRequest means the HTTP request could not be constructed
	// (malformed URL, bad method).
	KindRequest FailureKind = "request"

	// KindTimeout means the configured timeout expired before a
	// response arrived.
	KindTimeout FailureKind = "timeout"

	// KindCanceled means the caller's context was canceled.
	KindCanceled FailureKind = "canceled"

	// KindConnection covers dial, DNS, TLS and other transport errors.
	KindConnection FailureKind = "connection"

	// KindStatus means the server answered with a non-2xx status.
	KindStatus FailureKind = "status"

	// KindDecode means a 2xx response body could not be decoded.
	KindDecode FailureKind = "decode"

	// KindPanic means a panic was recovered at the client boundary.
	KindPanic FailureKind = "panic"
)

// Failure is the internal error type of the transport core.
type Failure struct {
	Kind FailureKind

	// StatusCode is set for KindStatus.
	StatusCode int

	// Body is a clipped excerpt of the response body for KindStatus.
	Body string

	Err error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == KindStatus && f.Body != "":
		return fmt.Sprintf("HTTP %d: %s", f.StatusCode, f.Body)
	case f.Kind == KindStatus:
		return fmt.Sprintf("HTTP %d", f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Invalid returns a KindInvalid failure.
func Invalid(format string, args ...any) *Failure {
	return &Failure{Kind: KindInvalid, Err: fmt.Errorf(format, args...)}
}

// Disabled returns a KindDisabled failure naming the missing keys.
func Disabled(missing []string) *Failure {
	return &Failure{Kind: KindDisabled, Err: fmt.Errorf("missing configuration %v", missing)}
}

// KindOf returns the kind of the first *Failure in err's chain, or ""
// when there is none.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}
