// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package mux is the readiness multiplexer: given a set of endpoint
// descriptors plus one hotplug-notification source, wait for at least
// one to become readable and report each ready one with an O(1)
// discriminator. Each platform supplies its own native primitive —
// epoll on Linux, the message pump on Windows (internal/winraw, outside
// this interface entirely) — since there is no portable third option.
package mux

import (
	"errors"
	"time"
)

// ErrUnsupported names the absence of a native readiness primitive.
// New is defined only for Linux, so no code in this module returns it.
var ErrUnsupported = errors.New("mux: unsupported platform")

// Ready is one readiness notification. Token is nil for the hotplug
// sentinel, else whatever was passed to Attach for that descriptor.
type Ready struct {
	Token   any
	Hotplug bool
}

// Multiplexer is the platform-native readiness primitive.
type Multiplexer interface {
	// Attach registers fd for read-readiness, associated with token.
	// token is returned verbatim in Ready.Token on wake-up so the caller
	// can resolve it (typically a registry.Token) without a scan.
	Attach(fd int, token any) error

	// Detach unregisters fd. Must be called before the fd is closed.
	Detach(fd int) error

	// AttachHotplug registers the single hotplug-notification source.
	// Ready events for it report Hotplug == true and a nil Token.
	AttachHotplug(fd int) error

	// Wait blocks up to timeout for at least one descriptor to become
	// ready, returning every ready descriptor's Ready value. A zero-length,
	// nil-error result on timeout is normal, not a failure.
	Wait(timeout time.Duration) ([]Ready, error)

	// Close releases the multiplexer's own resources (not the attached
	// descriptors, which the caller still owns).
	Close() error
}
