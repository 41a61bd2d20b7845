// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package keymap

// The Linux keymap provider. This wraps the C functions that wrap
// libxkbcommon (where the real keyboard-layout work is done), following
// the usual cgo-wraps-a-native-library shape used elsewhere in this
// module for per-OS native layers.

// #cgo linux pkg-config: xkbcommon
//
// #include <stdlib.h>
// #include <xkbcommon/xkbcommon.h>
// #include <xkbcommon/xkbcommon-names.h>
import "C"

import (
	"unsafe"

	"golang.org/x/text/unicode/norm"

	"github.com/galvanized/asyncin/internal/types"
)

// xkb is the Linux Keymap, one struct_xkb_context/keymap/state triple
// parameterized by (rules, model, layout, variant, options). The
// modifier names are interned
// once at construction since xkb_state_mod_name_is_active takes a
// C string, not an index.
type xkb struct {
	ctx   *C.struct_xkb_context
	keys  *C.struct_xkb_keymap
	state *C.struct_xkb_state

	modShift, modCtrl, modAlt, modLogo *C.char
}

// New builds the Linux xkbcommon-backed Keymap.
func New(cfg Config) (Keymap, error) {
	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, ErrUnsupported
	}
	names := C.struct_xkb_rule_names{
		rules:   cStringOrNil(cfg.Rules),
		model:   cStringOrNil(cfg.Model),
		layout:  cStringOrNil(cfg.Layout),
		variant: cStringOrNil(cfg.Variant),
		options: cStringOrNil(cfg.Options),
	}
	defer freeRuleNames(names)

	keymap := C.xkb_keymap_new_from_names(ctx, &names, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if keymap == nil {
		C.xkb_context_unref(ctx)
		return nil, ErrUnsupported
	}
	state := C.xkb_state_new(keymap)
	if state == nil {
		C.xkb_keymap_unref(keymap)
		C.xkb_context_unref(ctx)
		return nil, ErrUnsupported
	}
	return &xkb{
		ctx: ctx, keys: keymap, state: state,
		modShift: C.CString(C.XKB_MOD_NAME_SHIFT),
		modCtrl:  C.CString(C.XKB_MOD_NAME_CTRL),
		modAlt:   C.CString(C.XKB_MOD_NAME_ALT),
		modLogo:  C.CString(C.XKB_MOD_NAME_LOGO),
	}, nil
}

func cStringOrNil(s string) *C.char {
	if s == "" {
		return nil
	}
	return C.CString(s)
}

func freeRuleNames(n C.struct_xkb_rule_names) {
	free := func(p *C.char) {
		if p != nil {
			C.free(unsafe.Pointer(p))
		}
	}
	free(n.rules)
	free(n.model)
	free(n.layout)
	free(n.variant)
	free(n.options)
}

// Dispatch converts an evdev scancode to the XKB keycode space
// (scancode + 8), updates state, and resolves keysym/mods/text.
func (x *xkb) Dispatch(ev types.Event) (types.KeyEvent, bool, error) {
	if ev.Type != types.KEY {
		return types.KeyEvent{}, false, nil
	}
	code := C.xkb_keycode_t(ev.Code + 8)
	down := ev.Value != 0

	dir := C.XKB_KEY_UP
	if down {
		dir = C.XKB_KEY_DOWN
	}
	C.xkb_state_update_key(x.state, code, C.enum_xkb_key_direction(dir))

	sym := C.xkb_state_key_get_one_sym(x.state, code)
	out := types.KeyEvent{
		DeviceID:    ev.DeviceID,
		TimestampNS: ev.TimestampNS,
		Down:        down,
		Keysym:      uint32(sym),
		Mods:        x.mods(),
	}
	if down {
		var buf [32]C.char
		n := C.xkb_state_key_get_utf8(x.state, code, &buf[0], C.size_t(len(buf)))
		if n > 0 {
			// n is the length xkbcommon would need, not the number of bytes
			// actually written into buf — clamp before reading past it.
			if int(n) > len(buf)-1 {
				n = C.int(len(buf) - 1)
			}
			// xkbcommon composes dead-key sequences itself but does not
			// guarantee the result is in normalization form C; NFC-normalize
			// before it reaches a caller that may compare or index it.
			text := norm.NFC.String(C.GoStringN(&buf[0], n))
			// Control characters (Return, Tab, Escape, Ctrl+letter) are
			// single C0/DEL bytes; only printable text is reported.
			if !(len(text) == 1 && (text[0] < 0x20 || text[0] == 0x7f)) {
				out.Text = text
			}
		}
	}
	return out, true, nil
}

func (x *xkb) mods() types.Modifier {
	var m types.Modifier
	active := func(name *C.char) bool {
		return C.xkb_state_mod_name_is_active(x.state, name, C.XKB_STATE_MODS_EFFECTIVE) == 1
	}
	if active(x.modShift) {
		m |= types.ModShift
	}
	if active(x.modCtrl) {
		m |= types.ModCtrl
	}
	if active(x.modAlt) {
		m |= types.ModAlt
	}
	if active(x.modLogo) {
		m |= types.ModLogo
	}
	return m
}

func (x *xkb) Close() error {
	C.free(unsafe.Pointer(x.modShift))
	C.free(unsafe.Pointer(x.modCtrl))
	C.free(unsafe.Pointer(x.modAlt))
	C.free(unsafe.Pointer(x.modLogo))
	C.xkb_state_unref(x.state)
	C.xkb_keymap_unref(x.keys)
	C.xkb_context_unref(x.ctx)
	return nil
}
