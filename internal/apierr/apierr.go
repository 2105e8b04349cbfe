// Package apierr classifies failures of upstream data fetches.
//
// Every error a provider returns is one of three kinds: the request never got a
// usable response (network), the upstream answered with a failure or a payload we
// could not map (upstream), or the request could not be composed because a
// credential or a required parameter is missing (configuration).
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind is the coarse class of a fetch failure.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindNetwork       Kind = "network"
	KindUpstream      Kind = "upstream"
	KindConfiguration Kind = "configuration"
)

// Error is a classified fetch failure.
type Error struct {
	Kind       Kind
	Source     string // upstream name, e.g. "openweathermap"
	StatusCode int    // HTTP status for upstream errors, 0 otherwise
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s error (status %d): %s", e.Source, e.Kind, e.StatusCode, msg)
	case e.Source != "":
		return fmt.Sprintf("%s %s error: %s", e.Source, e.Kind, msg)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Network wraps a transport failure or timeout.
func Network(source string, err error) *Error {
	return &Error{Kind: KindNetwork, Source: source, Err: err}
}

// Upstream reports a non-success status or a malformed payload.
func Upstream(source string, status int, msg string) *Error {
	return &Error{Kind: KindUpstream, Source: source, StatusCode: status, Message: msg}
}

// UpstreamWrap is Upstream with an underlying cause, typically a decode error.
func UpstreamWrap(source string, status int, err error) *Error {
	return &Error{Kind: KindUpstream, Source: source, StatusCode: status, Err: err}
}

// Configuration reports a request that could not be composed, such as one
// without an API key or without a location.
func Configuration(source, msg string) *Error {
	return &Error{Kind: KindConfiguration, Source: source, Message: msg}
}

// KindOf returns the kind of err. Unclassified context deadlines and net.Error
// values are treated as network failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindNetwork
	}
	return KindUnknown
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
