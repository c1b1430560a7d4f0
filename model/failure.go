package model

import (
	"errors"
	"fmt"
	"slices"
)

type FailureKind string

const (
	// FailureMissingInput no request payload was found at the local input
	FailureMissingInput FailureKind = "missing_input"
	// FailureEnvelopeDecode metadata is absent, malformed or invalid
	FailureEnvelopeDecode FailureKind = "envelope_decode"
	// FailureNoRoute a dispatcher has no next hop configured
	FailureNoRoute FailureKind = "no_route"
	// FailureHTTP raised by a downloader
	FailureHTTP FailureKind = "http"
	// FailureInternalLink an HTTP failure talking to the immediate next hop
	FailureInternalLink FailureKind = "internal_link"
	// FailureRelay any other error caught while running a hop
	FailureRelay FailureKind = "relay"
)

var FailureKinds = []FailureKind{
	FailureMissingInput,
	FailureEnvelopeDecode,
	FailureNoRoute,
	FailureHTTP,
	FailureInternalLink,
	FailureRelay,
}

func (k FailureKind) Valid() bool {
	return slices.Contains(FailureKinds, k)
}

// Failure is a classified error captured by a relay node.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Cause   *Failure    `json:"cause,omitempty"`
	LastURL string      `json:"last_url,omitempty"`
	LastIP  string      `json:"last_ip,omitempty"`

	// err is the local error the failure was built from, never transported.
	err error
}

func NewFailure(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapFailure wraps err into a failure of the given kind. err becomes the cause.
func WrapFailure(kind FailureKind, err error) *Failure {
	f := &Failure{
		Kind:    kind,
		Message: err.Error(),
		err:     err,
	}
	var cause *Failure
	if errors.As(err, &cause) {
		f.Cause = cause
	}
	return f
}

// NewHTTPFailure returns an HTTP-level failure observed while connecting to lastURL.
func NewHTTPFailure(err error, lastURL string, lastIP string) *Failure {
	return &Failure{
		Kind:    FailureHTTP,
		Message: err.Error(),
		LastURL: lastURL,
		LastIP:  lastIP,
		err:     err,
	}
}

func (f *Failure) Error() string {
	if f.LastURL != "" {
		return fmt.Sprintf("%s: %s (%s)", f.Kind, f.Message, f.LastURL)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	if f.err != nil {
		return f.err
	}
	if f.Cause != nil {
		return f.Cause
	}
	return nil
}

// IsHTTP reports whether f is an HTTP-level failure. Internal link failures
// are HTTP-level failures as well.
func (f *Failure) IsHTTP() bool {
	return f.Kind == FailureHTTP || f.Kind == FailureInternalLink
}

// Is matches failures by kind so errors.Is(err, &Failure{Kind: k}) works.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == f.Kind
}

// AsInternalLink returns a copy of f re-tagged as an internal link failure.
func (f *Failure) AsInternalLink() *Failure {
	return &Failure{
		Kind:    FailureInternalLink,
		Message: f.Message,
		Cause:   f.Cause,
		LastURL: f.LastURL,
		LastIP:  f.LastIP,
		err:     f.err,
	}
}

// KindOf returns the failure kind of err, or an empty kind.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
