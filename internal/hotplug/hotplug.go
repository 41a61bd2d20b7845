// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package hotplug watches the OS device-node namespace for add/remove
// (spec component C4). The reference implementation is Linux inotify;
// see internal/winraw for how Windows folds the equivalent
// (RegisterDeviceNotification on the same message-only window used for
// Raw Input) directly into its worker instead of through this interface,
// since Windows has no separate descriptor to multiplex.
package hotplug

// Transition is one namespace change.
type Transition int

const (
	// Create covers both a genuine CREATE and a MOVED_IN (rename-into)
	// event — both are treated identically.
	Create Transition = iota
	Delete
)

// Change is one hotplug notification.
type Change struct {
	Transition Transition
	Path       string
}

// Monitor watches a device-node directory and reports changes via Fd's
// readiness (attach Fd() to a mux.Multiplexer's hotplug slot) and Drain.
type Monitor interface {
	// Fd returns the descriptor to attach to the readiness multiplexer.
	Fd() int
	// Drain reads and returns every pending change. Must be called only
	// after Fd() has been reported ready.
	Drain() ([]Change, error)
	// Close releases the underlying watch.
	Close() error
}
