// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

// Package linuxinput is the Linux reference platform layer: it opens
// /dev/input/event* nodes, queries their identity via ioctl, and parses
// the kernel's native input_event records. Grounded directly on
// johan-bolmsjo-golang-evdev's device.go (ioctl calls, device_info
// struct, ListInputDevicePaths) and andrieee44-mylib's linux/input
// uapi.go (typed Event/ID struct layout).
package linuxinput

import "github.com/galvanized/asyncin/internal/types"

// Event type codes — these ARE the kernel's input-event-codes.h values,
// so no translation is needed: types.SYN/KEY/REL/ABS/MSC already equal
// EV_SYN/EV_KEY/EV_REL/EV_ABS/EV_MSC.
const (
	evSyn = types.SYN
	evKey = types.KEY
	evRel = types.REL
	evAbs = types.ABS
	evMsc = types.MSC
)

const (
	evMax  = 0x1f
	keyMax = 0x2ff
)

// ioctl request numbers, from linux/input.h. _IOC encoding reproduced by
// hand (the kernel header is not importable from Go) the same way
// johan-bolmsjo-golang-evdev computes EVIOCGBIT.
const (
	eviocgversion = 0x80044501
	eviocgid      = 0x80084502
	eviocgrep     = 0x80084503
	eviocsrep     = 0x40084503
	eviocgkeycode = 0x80084504
	eviocgrab     = 0x40044590
	eviocsclockid = 0x400445a0
)

const (
	iocRead  = 2
	iocTypeE = 0x45 // ASCII 'E': the input subsystem's ioctl type.
)

func ioc(nr, size int) uintptr {
	return uintptr((iocRead << 30) | (size << 16) | (iocTypeE << 8) | nr)
}

func eviocgbit(ev, length int) uintptr { return ioc(0x20+ev, length) }
func eviocgname(length int) uintptr    { return ioc(0x06, length) }
func eviocgphys(length int) uintptr    { return ioc(0x07, length) }

// Key scancodes used by §6.1's "most commonly used codes" list are
// defined once in internal/types (the set every platform shares); this
// package keeps no copy of them. See types.KeyA etc.

// REL axis codes (duplicated here from types for local readability when
// building native records; values match types.RelX etc.).
const (
	relX      = types.RelX
	relY      = types.RelY
	relWheel  = types.RelWheel
	relHWheel = types.RelHWheel
)
