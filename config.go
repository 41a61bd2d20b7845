// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package asyncin

import "github.com/galvanized/asyncin/internal/keymap"

// Config parameterizes a Context at construction. The zero value is
// usable and matches the reference design's defaults.
type Config struct {
	// RingCapacity is the minimum number of events the raw-event ring
	// (C1) holds; ring.New sizes the backing array to the next power of
	// two above it, so the usable capacity can be larger. Zero selects
	// 1024.
	RingCapacity int

	// KeyRingCapacity bounds the KeyEvent ring the same way. Zero
	// selects the raw-event ring's capacity (RingCapacity, or its
	// default when that is zero too).
	KeyRingCapacity int

	// DeviceGlob names a device-node glob (Linux default:
	// /dev/input/event*). Init does not pass it to the platform engine:
	// the Linux engine always enumerates /dev/input/event*.
	DeviceGlob string

	// LegacyMouseNode overrides the aggregated legacy pointer node
	// (Linux default: /dev/input/mice). See EnableMice.
	LegacyMouseNode string

	// LegacyMouseWheel selects the 4-byte IntelliMouse wheel extension
	// when reading the aggregated legacy pointer node, instead of
	// standard 3-byte PS/2 packets. See EnableMice.
	LegacyMouseWheel bool
}

// KeymapConfig is Config exported at §4.6's granularity: the
// (rules, model, layout, variant, options) tuple SetXKBNames installs.
type KeymapConfig = keymap.Config

func (c Config) ringCapacity() int {
	if c.RingCapacity > 0 {
		return c.RingCapacity
	}
	return 1024
}

func (c Config) keyRingCapacity() int {
	if c.KeyRingCapacity > 0 {
		return c.KeyRingCapacity
	}
	return c.ringCapacity()
}
