// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package linuxinput

import (
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/galvanized/asyncin/internal/registry"
)

// DeviceGlob is the default node glob for evdev character devices.
const DeviceGlob = "/dev/input/event*"

// nativeID struct, mirrors struct input_id (bustype, vendor, product,
// version uint16 each).
type nativeID struct {
	Bustype, Vendor, Product, Version uint16
}

const maxNameSize = 256

// Open opens path read-only, non-blocking, close-on-exec and queries
// its identity. The caller is responsible for consulting a
// registry.Filter against the returned Info before deciding whether to
// keep or close the handle.
func Open(path string) (fd int, info registry.Info, err error) {
	fd, err = unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, registry.Info{}, err
	}
	info, err = queryInfo(fd, path)
	if err != nil {
		unix.Close(fd)
		return -1, registry.Info{}, err
	}
	// Best-effort: pin the device's clock to CLOCK_MONOTONIC so
	// TimestampNS is comparable to our own monotonic ingest clock (spec
	// §9's open question, see DESIGN.md).
	clk := int32(unix.CLOCK_MONOTONIC)
	unix.IoctlSetPointerInt(fd, uint(eviocsclockid), int(clk))
	return fd, info, nil
}

// Close closes fd.
func Close(fd int) error { return unix.Close(fd) }

func queryInfo(fd int, path string) (registry.Info, error) {
	var id nativeID
	if err := ioctl(fd, eviocgid, unsafe.Pointer(&id)); err != nil {
		return registry.Info{}, err
	}
	var name [maxNameSize]byte
	if err := ioctl(fd, eviocgname(maxNameSize), unsafe.Pointer(&name)); err != nil {
		return registry.Info{}, err
	}
	return registry.Info{
		Name:    cString(name[:]),
		Bus:     id.Bustype,
		Vendor:  id.Vendor,
		Product: id.Product,
		Version: id.Version,
	}, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// ErrNoIndex is returned by IDFromPath when path doesn't end in a
// parseable "eventN" suffix.
var ErrNoIndex = errors.New("linuxinput: path has no event index")

// IDFromPath derives the registry device_id from the device node's
// index, e.g. "/dev/input/event3" -> 3.
func IDFromPath(path string) (int, error) {
	base := filepath.Base(path)
	const prefix = "event"
	if !strings.HasPrefix(base, prefix) {
		return 0, ErrNoIndex
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, prefix))
	if err != nil {
		return 0, ErrNoIndex
	}
	return n, nil
}

// Enumerate lists every candidate /dev/input/event* node.
func Enumerate(glob string) ([]string, error) {
	if glob == "" {
		glob = DeviceGlob
	}
	return filepath.Glob(glob)
}
