// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package types holds the wire-shape data model shared between the
// public API and every platform-specific producer, kept in its own
// package so the platform packages never import the root package (which
// would be a cycle: root imports them to build a Context).
package types

// Event kind constants. On Linux these alias the kernel's
// input-event-codes values verbatim so no translation table is needed;
// other platforms own their own stable values.
const (
	SYN   = 0x00
	KEY   = 0x01
	REL   = 0x02
	ABS   = 0x03
	MSC   = 0x04
	MOUSE = 0xff // synthetic: the unified legacy-mouse variant
)

// REL axis codes (aliases input-event-codes.h on Linux).
const (
	RelX     = 0x00
	RelY     = 0x01
	RelWheel = 0x08
	RelHWheel = 0x06
)

// Mouse button codes (aliases input-event-codes.h BTN_* on Linux).
const (
	BtnLeft   = 0x110
	BtnRight  = 0x111
	BtnMiddle = 0x112
	BtnSide   = 0x113
	BtnExtra  = 0x114
)

// Key scancodes for KEY events — the "most commonly used codes" §6.1
// asks for: the alphabet, ESC/ENTER/SPACE, the modifier keys, and the
// F-keys. These alias input-event-codes.h KEY_* verbatim on Linux; a
// non-Linux build owns these same numeric values as its stable set
// (§6.1: "on other platforms the library owns stable values").
const (
	KeyEsc   = 1
	KeyEnter = 28
	KeySpace = 57

	KeyQ = 16
	KeyW = 17
	KeyE = 18
	KeyR = 19
	KeyT = 20
	KeyY = 21
	KeyU = 22
	KeyI = 23
	KeyO = 24
	KeyP = 25
	KeyA = 30
	KeyS = 31
	KeyD = 32
	KeyF = 33
	KeyG = 34
	KeyH = 35
	KeyJ = 36
	KeyK = 37
	KeyL = 38
	KeyZ = 44
	KeyX = 45
	KeyC = 46
	KeyV = 47
	KeyB = 48
	KeyN = 49
	KeyM = 50

	KeyLeftShift  = 42
	KeyRightShift = 54
	KeyLeftCtrl   = 29
	KeyRightCtrl  = 97
	KeyLeftAlt    = 56
	KeyRightAlt   = 100
	KeyLeftMeta   = 125
	KeyRightMeta  = 126

	KeyF1  = 59
	KeyF2  = 60
	KeyF3  = 61
	KeyF4  = 62
	KeyF5  = 63
	KeyF6  = 64
	KeyF7  = 65
	KeyF8  = 66
	KeyF9  = 67
	KeyF10 = 68
	KeyF11 = 87
	KeyF12 = 88
)

// LegacyMouseDeviceID is the reserved sentinel device_id for the
// aggregated legacy-pointer pseudo-endpoint.
const LegacyMouseDeviceID = -2

// Event is the raw, device-origin event delivered to a callback or
// ring. TimestampNS is in the clock domain documented by the producing
// platform package — Linux: the kernel's per-device
// timeval, pinned to CLOCK_MONOTONIC when EVIOCSCLOCKID succeeds at
// open and otherwise in whatever clock the kernel uses for that device;
// a record with a zero timeval, and every legacy-mouse event, gets a
// CLOCK_MONOTONIC sample taken at ingest; Windows: a
// QueryPerformanceCounter-derived monotonic sample taken at WM_INPUT
// delivery.
type Event struct {
	DeviceID    int
	Type        int
	Code        int
	Value       int32
	TimestampNS int64

	// X, Y, Extra belong to the synthetic MOUSE event kind; no producer
	// in this module emits MOUSE events (the aggregated legacy-pointer
	// reader emits KEY and REL), so they are left zero. On Windows,
	// internal/winraw reuses Extra to carry a modifier
	// snapshot on the synthetic KEY record it hands to internal/keymap,
	// since WM_CHAR/WM_KEYDOWN already resolve modifiers without a
	// separate xkb-style state machine.
	X, Y, Extra int
}

// Modifier is a bitset over the modifier keys tracked by the keymap
// layer.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModLogo
)

// KeyEvent is the high-level, layout-aware key event produced by the
// optional keymap layer.
type KeyEvent struct {
	DeviceID    int
	TimestampNS int64
	Down        bool
	Keysym      uint32
	Mods        Modifier
	Text        string // UTF-8, only non-empty on key-down with a printable result
}
