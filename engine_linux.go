// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package asyncin

import (
	"github.com/galvanized/asyncin/internal/hotplug"
	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/legacymouse"
	"github.com/galvanized/asyncin/internal/linuxinput"
	"github.com/galvanized/asyncin/internal/mux"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
	"github.com/galvanized/asyncin/internal/worker"
)

const linuxDeviceDir = "/dev/input"

// linuxEngine adapts *worker.Worker to platformEngine.
type linuxEngine struct {
	w   *worker.Worker
	reg *registry.Registry
}

func newPlatformEngine(reg *registry.Registry, eventRing *ring.Ring[types.Event], keyRing *ring.Ring[types.KeyEvent]) (platformEngine, error) {
	m, err := mux.New()
	if err != nil {
		return nil, newErr("asyncin: Init", Resource, err)
	}
	hp, err := hotplug.New(linuxDeviceDir)
	if err != nil {
		m.Close()
		return nil, newErr("asyncin: Init", Resource, err)
	}
	w := worker.New(reg, m, hp, linuxinput.Platform{}, eventRing, keyRing)
	return &linuxEngine{w: w, reg: reg}, nil
}

func (e *linuxEngine) Run()  { e.w.Run() }
func (e *linuxEngine) Stop() { e.w.Stop() }

func (e *linuxEngine) SetCallback(cb func(types.Event)) {
	if cb == nil {
		e.w.SetCallback(nil)
		return
	}
	e.w.SetCallback(worker.EventCallback(cb))
}

func (e *linuxEngine) SetKeyCallback(cb func(types.KeyEvent)) {
	if cb == nil {
		e.w.SetKeyCallback(nil)
		return
	}
	e.w.SetKeyCallback(worker.KeyCallback(cb))
}

func (e *linuxEngine) SetKeymap(k keymap.Keymap)  { e.w.SetKeymap(k) }
func (e *linuxEngine) DeviceCount() int           { return e.reg.Count() }
func (e *linuxEngine) Stats() worker.Stats        { return e.w.Stats() }
func (e *linuxEngine) TriggerRescan()             { e.w.TriggerRescan() }
func (e *linuxEngine) Publish(ev types.Event)     { e.w.Publish(ev) }

func newPlatformKeymap(cfg keymap.Config) (keymap.Keymap, error) { return keymap.New(cfg) }

// linuxLegacyReader adapts *legacymouse.Reader to legacyReader.
type linuxLegacyReader struct{ r *legacymouse.Reader }

func newPlatformLegacyReader(node string, wheel bool) (legacyReader, error) {
	open := legacymouse.Open
	if wheel {
		open = legacymouse.OpenWheel
	}
	r, err := open(node)
	if err != nil {
		return nil, err
	}
	return linuxLegacyReader{r}, nil
}

func (l linuxLegacyReader) Run(stop <-chan struct{}, sink func(types.Event)) { l.r.Run(stop, sink) }
func (l linuxLegacyReader) Close() error                                    { return l.r.Close() }
