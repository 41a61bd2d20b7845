// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import (
	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/types"
	"github.com/galvanized/asyncin/internal/worker"
)

// platformEngine is the contract a Context drives; each OS supplies its
// own factory (engine_linux.go, engine_windows.go, engine_other.go).
type platformEngine interface {
	Run()
	Stop()
	SetCallback(func(types.Event))
	SetKeyCallback(func(types.KeyEvent))
	SetKeymap(keymap.Keymap)
	DeviceCount() int
	Stats() worker.Stats

	// TriggerRescan synchronously re-evaluates the current device
	// filter against every candidate endpoint: SetDeviceFilter calls
	// this after installing a new predicate so testable property 5
	// ("after set_device_filter(f) completes, f holds for every
	// tracked record") is satisfied by the time it returns.
	TriggerRescan()

	// Publish feeds an independently produced event (the legacy
	// aggregated mouse reader) through the same callback-or-ring sink
	// the engine's own devices publish to.
	Publish(types.Event)
}

// legacyReader is the contract EnableMice drives; nil on platforms with
// no aggregated legacy pointer node.
type legacyReader interface {
	Run(stop <-chan struct{}, sink func(types.Event))
	Close() error
}

// Each of engine_linux.go / engine_windows.go / engine_other.go defines:
//
//	func newPlatformEngine(reg *registry.Registry, eventRing *ring.Ring[Event], keyRing *ring.Ring[KeyEvent]) (platformEngine, error)
//	func newPlatformKeymap(cfg keymap.Config) (keymap.Keymap, error)
//	func newPlatformLegacyReader(node string, wheel bool) (legacyReader, error)
//
// selected at build time via per-OS build tags.
