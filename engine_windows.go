// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build windows

package asyncin

import (
	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
	"github.com/galvanized/asyncin/internal/winraw"
	"github.com/galvanized/asyncin/internal/worker"
)

// windowsEngine adapts *winraw.Engine to platformEngine.
type windowsEngine struct{ e *winraw.Engine }

func newPlatformEngine(reg *registry.Registry, eventRing *ring.Ring[types.Event], keyRing *ring.Ring[types.KeyEvent]) (platformEngine, error) {
	// Windows Raw Input has no per-endpoint open step the registry's
	// Add/Remove model assumes, so it is not wired into winraw; the
	// engine tracks device_count itself from WM_DEVICECHANGE.
	return windowsEngine{e: winraw.New(eventRing, keyRing)}, nil
}

func (e windowsEngine) Run()  { e.e.Run() }
func (e windowsEngine) Stop() { e.e.Stop() }

func (e windowsEngine) SetCallback(cb func(types.Event)) {
	if cb == nil {
		e.e.SetCallback(nil)
		return
	}
	e.e.SetCallback(winraw.EventCallback(cb))
}

func (e windowsEngine) SetKeyCallback(cb func(types.KeyEvent)) {
	if cb == nil {
		e.e.SetKeyCallback(nil)
		return
	}
	e.e.SetKeyCallback(winraw.KeyCallback(cb))
}

func (e windowsEngine) SetKeymap(k keymap.Keymap) { e.e.SetKeymap(k) }
func (e windowsEngine) DeviceCount() int          { return e.e.DeviceCount() }
func (e windowsEngine) Stats() worker.Stats       { return e.e.Stats() }

// TriggerRescan is a no-op: Raw Input has no per-endpoint open step and
// no registry/filter of its own (see newPlatformEngine above), so there
// is nothing for a filter change to re-evaluate.
func (e windowsEngine) TriggerRescan() {}

func (e windowsEngine) Publish(ev types.Event) { e.e.Publish(ev) }

func newPlatformKeymap(cfg keymap.Config) (keymap.Keymap, error) { return keymap.New(cfg) }

// newPlatformLegacyReader: the aggregated legacy-pointer node is an
// evdev-specific artifact with no Windows equivalent — Raw Input
// already delivers per-device mouse events natively, so there is
// nothing to aggregate.
func newPlatformLegacyReader(node string, wheel bool) (legacyReader, error) {
	return nil, newErr("asyncin: EnableMice", Unsupported, nil)
}
