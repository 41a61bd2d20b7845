// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import (
	"github.com/galvanized/asyncin/internal/registry"
	"github.com/galvanized/asyncin/internal/types"
)

// Event and KeyEvent are the public event shapes, aliased from
// internal/types so every platform package shares one definition
// without the root package importing them back (which would cycle).
type Event = types.Event
type KeyEvent = types.KeyEvent
type Modifier = types.Modifier

// Event-type and code constants. On Linux these equal the kernel's
// input-event-codes values verbatim.
const (
	SYN   = types.SYN
	KEY   = types.KEY
	REL   = types.REL
	ABS   = types.ABS
	MSC   = types.MSC
	MOUSE = types.MOUSE
)

// REL axis codes.
const (
	RelX      = types.RelX
	RelY      = types.RelY
	RelWheel  = types.RelWheel
	RelHWheel = types.RelHWheel
)

// Mouse button codes.
const (
	BtnLeft   = types.BtnLeft
	BtnRight  = types.BtnRight
	BtnMiddle = types.BtnMiddle
	BtnSide   = types.BtnSide
	BtnExtra  = types.BtnExtra
)

// Key scancodes for the alphabet, ESC/ENTER/SPACE, the modifier keys,
// and the F-keys — the "most commonly used codes" §6.1 calls out.
const (
	KeyEsc   = types.KeyEsc
	KeyEnter = types.KeyEnter
	KeySpace = types.KeySpace

	KeyA = types.KeyA
	KeyB = types.KeyB
	KeyC = types.KeyC
	KeyD = types.KeyD
	KeyE = types.KeyE
	KeyF = types.KeyF
	KeyG = types.KeyG
	KeyH = types.KeyH
	KeyI = types.KeyI
	KeyJ = types.KeyJ
	KeyK = types.KeyK
	KeyL = types.KeyL
	KeyM = types.KeyM
	KeyN = types.KeyN
	KeyO = types.KeyO
	KeyP = types.KeyP
	KeyQ = types.KeyQ
	KeyR = types.KeyR
	KeyS = types.KeyS
	KeyT = types.KeyT
	KeyU = types.KeyU
	KeyV = types.KeyV
	KeyW = types.KeyW
	KeyX = types.KeyX
	KeyY = types.KeyY
	KeyZ = types.KeyZ

	KeyLeftShift  = types.KeyLeftShift
	KeyRightShift = types.KeyRightShift
	KeyLeftCtrl   = types.KeyLeftCtrl
	KeyRightCtrl  = types.KeyRightCtrl
	KeyLeftAlt    = types.KeyLeftAlt
	KeyRightAlt   = types.KeyRightAlt
	KeyLeftMeta   = types.KeyLeftMeta
	KeyRightMeta  = types.KeyRightMeta

	KeyF1  = types.KeyF1
	KeyF2  = types.KeyF2
	KeyF3  = types.KeyF3
	KeyF4  = types.KeyF4
	KeyF5  = types.KeyF5
	KeyF6  = types.KeyF6
	KeyF7  = types.KeyF7
	KeyF8  = types.KeyF8
	KeyF9  = types.KeyF9
	KeyF10 = types.KeyF10
	KeyF11 = types.KeyF11
	KeyF12 = types.KeyF12
)

// Modifier bits tracked in KeyEvent.Mods.
const (
	ModShift = types.ModShift
	ModCtrl  = types.ModCtrl
	ModAlt   = types.ModAlt
	ModLogo  = types.ModLogo
)

// LegacyMouseDeviceID is the reserved device_id of the aggregated
// legacy-pointer pseudo-endpoint.
const LegacyMouseDeviceID = types.LegacyMouseDeviceID

// DeviceInfo is the endpoint metadata a Filter decides on.
type DeviceInfo = registry.Info

// Filter decides whether an endpoint should be tracked by the registry.
type Filter func(DeviceInfo) bool
