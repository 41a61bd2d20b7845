// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package linuxinput

import (
	"encoding/binary"
	"time"

	"golang.org/x/sys/unix"

	"github.com/galvanized/asyncin/internal/types"
)

// nativeRecord is the decoded form of struct input_event on a 64-bit
// kernel: a struct timeval (two 64-bit longs), then type/code (u16) and
// value (s32), 24 bytes total with no padding. This is the wire layout
// the kernel writes to the device node; on platforms with a compatible
// native encoding, it can be aliased directly rather than re-encoded.
// Decoding is done field-by-field below rather than via an
// unsafe cast, since this struct's Go layout need not match the C one.
type nativeRecord struct {
	Sec, Usec  int64
	Type, Code uint16
	Value      int32
}

const recordSize = 24

// ReadBatch reads every record currently available on fd without
// blocking, stopping at the first EAGAIN: a tight inner loop until the
// endpoint signals it would block. A non-EAGAIN error is returned so
// the caller can decide whether the endpoint is gone; the endpoint
// stays registered either way — hotplug delete is the only removal
// path.
func ReadBatch(fd int, deviceID int) ([]types.Event, error) {
	var buf [64 * recordSize]byte // up to 64 records per syscall
	var events []types.Event
	for {
		n, err := unix.Read(fd, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return events, nil
			}
			return events, err
		}
		if n <= 0 {
			return events, nil
		}
		count := n / recordSize
		for i := 0; i < count; i++ {
			off := i * recordSize
			rec := decode(buf[off : off+recordSize])
			events = append(events, toEvent(deviceID, rec))
		}
	}
}

func decode(b []byte) nativeRecord {
	var r nativeRecord
	r.Sec = int64(binary.LittleEndian.Uint64(b[0:8]))
	r.Usec = int64(binary.LittleEndian.Uint64(b[8:16]))
	r.Type = binary.LittleEndian.Uint16(b[16:18])
	r.Code = binary.LittleEndian.Uint16(b[18:20])
	r.Value = int32(binary.LittleEndian.Uint32(b[20:24]))
	return r
}

func toEvent(deviceID int, rec nativeRecord) types.Event {
	ts := rec.Sec*int64(time.Second) + rec.Usec*int64(time.Microsecond)
	if ts == 0 {
		var now unix.Timespec
		if unix.ClockGettime(unix.CLOCK_MONOTONIC, &now) == nil {
			ts = now.Nano()
		}
	}
	return types.Event{
		DeviceID:    deviceID,
		Type:        int(rec.Type),
		Code:        int(rec.Code),
		Value:       rec.Value,
		TimestampNS: ts,
	}
}
