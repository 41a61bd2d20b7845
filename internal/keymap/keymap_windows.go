// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build windows

package keymap

import "github.com/galvanized/asyncin/internal/types"

// wmChar is the Windows Keymap. Windows already resolves layout, dead
// keys and modifier composition for us: WM_CHAR delivers the composed
// UTF-8 (via the wide-to-UTF-8 conversion internal/winraw performs at
// the message pump) alongside the raw WM_INPUT scancode and the
// modifier snapshot winraw tracks from WM_KEYDOWN/WM_KEYUP on the
// shift/control/alt/win virtual keys. This type only exists to give
// Windows the same Keymap shape the Linux xkbcommon path implements, so
// the worker never special-cases the platform.
type wmChar struct{}

// New builds the Windows Keymap. cfg is accepted for interface
// symmetry with the Linux provider but unused: there is no rules/model/
// layout/variant/options tuple on Windows, the active keyboard layout
// is whatever the user has selected in the OS.
func New(cfg Config) (Keymap, error) { return wmChar{}, nil }

// Dispatch expects ev to already carry the resolved KeyEvent fields,
// stashed by internal/winraw's WM_INPUT/WM_KEYDOWN handling into the
// Code/Value/Extra fields of a synthetic KEY record; see winraw's
// winraw_handle_rawinput and decodeEventRecord for the exact encoding. This keeps internal/winraw free of
// any dependency on this package's internal state.
func (wmChar) Dispatch(ev types.Event) (types.KeyEvent, bool, error) {
	if ev.Type != types.KEY {
		return types.KeyEvent{}, false, nil
	}
	return types.KeyEvent{
		DeviceID:    ev.DeviceID,
		TimestampNS: ev.TimestampNS,
		Down:        ev.Value != 0,
		Keysym:      uint32(ev.Code),
		Mods:        types.Modifier(ev.Extra),
	}, true, nil
}

func (wmChar) Close() error { return nil }
