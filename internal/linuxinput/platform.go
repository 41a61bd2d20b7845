// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package linuxinput

import (
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/types"
)

// Platform adapts this package's free functions to worker.Platform's
// method set (structurally, without importing internal/worker — this
// package stays a leaf).
type Platform struct {
	// Glob overrides DeviceGlob for enumeration, mainly for tests.
	Glob string
}

func (p Platform) Enumerate() ([]string, error) { return Enumerate(p.Glob) }

func (p Platform) IDFromPath(path string) (int, error) { return IDFromPath(path) }

func (p Platform) Open(path string) (uintptr, registry.Info, error) {
	fd, info, err := Open(path)
	return uintptr(fd), info, err
}

func (p Platform) Close(handle uintptr) error { return Close(int(handle)) }

func (p Platform) ReadBatch(handle uintptr, deviceID int) ([]types.Event, error) {
	return ReadBatch(int(handle), deviceID)
}
