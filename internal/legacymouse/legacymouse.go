// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

// Package legacymouse reads the aggregated legacy pointer node as a
// second background task, decoding 3-or-4-byte PS/2-style packets into
// REL/KEY events at device_id == -2. Uses the same open-flags
// convention as internal/linuxinput (O_RDONLY | O_NONBLOCK |
// O_CLOEXEC) since the node is read the same way, just with a
// different record format.
package legacymouse

import (
	"golang.org/x/sys/unix"

	"github.com/galvanized/asyncin/internal/types"
)

// readinessTimeout matches internal/worker.ReadinessTimeout so this
// task honors the same stop-signal liveness bound.
const readinessTimeout = 50


const defaultNode = "/dev/input/mice"

// Standard PS/2 packets are 3 bytes (button, dx, dy); the IntelliMouse
// wheel extension adds a 4th byte. Unlike evdev, the aggregated node
// gives no per-packet framing, so the packet size is a property of the
// device negotiated once at open time (the same way xf86-input-mouse's
// "Protocol" option or mousedev's imps2 mode is configured), not guessed
// packet-by-packet from the byte stream.
const (
	standardPacketSize = 3
	wheelPacketSize    = 4
)

// Reader owns the aggregated mouse node.
type Reader struct {
	fd         int
	packetSize int

	// pkt/have accumulate bytes across ReadBatch calls: the node is a
	// byte stream, not a record stream, so a read can land mid-packet,
	// and the leftover bytes must be carried into the next ReadBatch
	// call instead of being discarded at the read boundary.
	pkt  [4]byte
	have int

	// prevBtn is the button mask decoded from the last packet, so decode
	// can emit KEY events on transitions only, matching the per-endpoint
	// evdev path's edge-triggered contract instead of re-asserting every
	// button's state on every packet.
	prevBtn byte
}

// Open opens the aggregated legacy pointer node assuming standard
// 3-byte PS/2 packets. node defaults to /dev/input/mice.
func Open(node string) (*Reader, error) { return open(node, standardPacketSize) }

// OpenWheel opens the node assuming the 4-byte IntelliMouse wheel
// extension is active on it.
func OpenWheel(node string) (*Reader, error) { return open(node, wheelPacketSize) }

func open(node string, packetSize int) (*Reader, error) {
	if node == "" {
		node = defaultNode
	}
	fd, err := unix.Open(node, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &Reader{fd: fd, packetSize: packetSize}, nil
}

// Fd is the descriptor to wait on.
func (r *Reader) Fd() int { return r.fd }

// Close closes the node.
func (r *Reader) Close() error { return unix.Close(r.fd) }

// ReadBatch decodes every complete packet currently available, stopping
// at the first would-block, same contract as linuxinput.ReadBatch.
// Partial packets left over at the end of a read are carried in r.pkt/
// r.have and completed by a later call, matching the original reference
// decoder's have counter living outside its per-read loop — fixing the
// bug a fixed per-read stride has when a read doesn't land on a packet
// boundary.
func (r *Reader) ReadBatch() ([]types.Event, error) {
	var buf [256]byte
	var events []types.Event
	for {
		n, err := unix.Read(r.fd, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return events, nil
			}
			return events, err
		}
		if n <= 0 {
			return events, nil
		}
		var ts unix.Timespec
		unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
		now := ts.Nano()
		for i := 0; i < n; i++ {
			r.pkt[r.have] = buf[i]
			r.have++
			if r.have < r.packetSize {
				continue
			}
			events = append(events, r.decode(now)...)
			r.have = 0
		}
	}
}

// decode turns the accumulated r.pkt into core events. Button KEY
// events are edge-triggered off r.prevBtn: the aggregated node has no
// EV_KEY semantics of its own (every packet restates the full button
// mask), so decode must track the last mask itself to avoid re-emitting
// a release for a button that was never down on every motion-only
// packet.
func (r *Reader) decode(now int64) []types.Event {
	btn := r.pkt[0]
	dx := int8(r.pkt[1])
	// dy is sign-inverted to match the primary (evdev) event space.
	dy := -int8(r.pkt[2])

	var events []types.Event
	changed := btn ^ r.prevBtn
	for mask, code := range map[byte]int{
		0x01: types.BtnLeft,
		0x02: types.BtnRight,
		0x04: types.BtnMiddle,
	} {
		if changed&mask == 0 {
			continue
		}
		value := int32(0)
		if btn&mask != 0 {
			value = 1
		}
		events = append(events, types.Event{
			DeviceID: types.LegacyMouseDeviceID, Type: types.KEY, Code: code,
			Value: value, TimestampNS: now,
		})
	}
	r.prevBtn = btn
	if dx != 0 {
		events = append(events, types.Event{
			DeviceID: types.LegacyMouseDeviceID, Type: types.REL, Code: types.RelX,
			Value: int32(dx), TimestampNS: now,
		})
	}
	if dy != 0 {
		events = append(events, types.Event{
			DeviceID: types.LegacyMouseDeviceID, Type: types.REL, Code: types.RelY,
			Value: int32(dy), TimestampNS: now,
		})
	}
	if r.packetSize == wheelPacketSize {
		if dz := int8(r.pkt[3]); dz != 0 {
			events = append(events, types.Event{
				DeviceID: types.LegacyMouseDeviceID, Type: types.REL, Code: types.RelWheel,
				Value: int32(dz), TimestampNS: now,
			})
		}
	}
	return events
}

// Run is an optional second background task: poll the node and publish
// every decoded event to sink until stop is closed. It owns no
// registry/multiplexer — there is exactly one endpoint, so a readiness
// wait is just a poll(2) on a single fd.
func (r *Reader) Run(stop <-chan struct{}, sink func(types.Event)) {
	pfd := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := unix.Poll(pfd, readinessTimeout)
		if err != nil || n <= 0 {
			continue
		}
		events, err := r.ReadBatch()
		if err != nil {
			continue
		}
		for _, ev := range events {
			sink(ev)
		}
	}
}
