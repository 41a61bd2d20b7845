// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build !linux && !windows

package asyncin

import (
	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
)

func newPlatformEngine(reg *registry.Registry, eventRing *ring.Ring[types.Event], keyRing *ring.Ring[types.KeyEvent]) (platformEngine, error) {
	return nil, newErr("asyncin: Init", Resource, keymap.ErrUnsupported)
}

func newPlatformKeymap(cfg keymap.Config) (keymap.Keymap, error) {
	return nil, newErr("asyncin: EnableXKB", Unsupported, keymap.ErrUnsupported)
}

func newPlatformLegacyReader(node string, wheel bool) (legacyReader, error) {
	return nil, newErr("asyncin: EnableMice", Unsupported, nil)
}
