// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import "fmt"

// Kind classifies an Error. This replaces a C-style signed-int return
// code with a type compatible with errors.Is/errors.As.
type Kind int

const (
	// NotInitialized: the Context was used before Init or after
	// Shutdown.
	NotInitialized Kind = iota
	// InvalidArgument: a non-positive max, nil pointer, or similar.
	InvalidArgument
	// Permission: the OS denied access to the device namespace.
	Permission
	// Resource: the multiplexer, hotplug monitor, or worker failed to
	// start.
	Resource
	// Unsupported: the requested feature has no provider on this
	// platform or build.
	Unsupported
	// DeviceGone: a registered endpoint returned a terminal read
	// error. Never returned directly — observed only as the absence of
	// further events from that device_id.
	DeviceGone
)

func (k Kind) String() string {
	switch k {
	case NotInitialized:
		return "not initialized"
	case InvalidArgument:
		return "invalid argument"
	case Permission:
		return "permission"
	case Resource:
		return "resource"
	case Unsupported:
		return "unsupported"
	case DeviceGone:
		return "device gone"
	default:
		return "unknown"
	}
}

// Error is the error type every asyncin operation returns, carrying a
// Kind instead of a C ABI return code.
type Error struct {
	Op   string // the failing operation, e.g. "asyncin: Init"
	Kind Kind
	Err  error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &asyncin.Error{Kind: asyncin.Unsupported}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newErr(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}
