// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package hotplug

import (
	"bytes"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// inotifyMonitor watches a single directory (normally /dev/input) for
// CREATE, MOVED_IN and DELETE, grounded on the vendored syncthing/notify
// inotify watcher's use of InotifyInit1/InotifyAddWatch/InotifyEvent
// buffer parsing — simplified to a single fixed watch, since the worker
// only ever needs one directory watched.
type inotifyMonitor struct {
	fd  int
	wd  int
	dir string
}

// New opens an inotify instance and watches dir for device add/remove.
func New(dir string) (Monitor, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}
	wd, err := unix.InotifyAddWatch(fd, dir, unix.IN_CREATE|unix.IN_MOVED_TO|unix.IN_DELETE)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &inotifyMonitor{fd: fd, wd: wd, dir: dir}, nil
}

func (m *inotifyMonitor) Fd() int { return m.fd }

// Drain reads every inotify_event currently buffered on fd and decodes
// them into Changes. Call only once Fd() has been reported readable;
// with IN_NONBLOCK set, a call with nothing pending returns (nil, nil)
// rather than blocking.
func (m *inotifyMonitor) Drain() ([]Change, error) {
	var buf [64 * (unix.SizeofInotifyEvent + unix.PathMax + 1)]byte
	n, err := unix.Read(m.fd, buf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return nil, nil
		}
		return nil, err
	}
	var changes []Change
	for off := 0; off+unix.SizeofInotifyEvent <= n; {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[off]))
		off += unix.SizeofInotifyEvent
		name := ""
		if raw.Len > 0 {
			end := off + int(raw.Len)
			name = string(bytes.TrimRight(buf[off:end], "\x00"))
			off = end
		}
		if name == "" {
			continue
		}
		path := filepath.Join(m.dir, name)
		switch {
		case raw.Mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
			changes = append(changes, Change{Transition: Create, Path: path})
		case raw.Mask&unix.IN_DELETE != 0:
			changes = append(changes, Change{Transition: Delete, Path: path})
		}
	}
	return changes, nil
}

func (m *inotifyMonitor) Close() error {
	unix.InotifyRmWatch(m.fd, uint32(m.wd))
	return unix.Close(m.fd)
}
