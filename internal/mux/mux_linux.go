// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build linux

package mux

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollMux is the Linux Multiplexer, grounded on the epoll wrapper in
// joeycumines-go-utilpkg's poller_linux.go: one epoll instance, a
// token map keyed by fd (epoll_event's data word only holds the fd
// itself on this binding, so the token lookup is a map, not the union
// pointer trick — see the registry package's Token/Resolve for why that
// is still an O(1) dispatch rather than a scan).
type epollMux struct {
	mu        sync.Mutex
	epfd      int
	tokens    map[int]any
	hotplugFd int
}

// New builds the Linux epoll multiplexer.
func New() (Multiplexer, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollMux{epfd: epfd, tokens: make(map[int]any), hotplugFd: -1}, nil
}

func (m *epollMux) Attach(fd int, token any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	m.tokens[fd] = token
	return nil
}

func (m *epollMux) Detach(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, fd)
	err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if fd == m.hotplugFd {
		m.hotplugFd = -1
	}
	return err
}

func (m *epollMux) AttachHotplug(fd int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(m.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	m.hotplugFd = fd
	return nil
}

func (m *epollMux) Wait(timeout time.Duration) ([]Ready, error) {
	events := make([]unix.EpollEvent, 64)
	ms := int(timeout / time.Millisecond)
	n, err := unix.EpollWait(m.epfd, events, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ready := make([]Ready, 0, n)
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == m.hotplugFd {
			ready = append(ready, Ready{Hotplug: true})
			continue
		}
		if tok, ok := m.tokens[fd]; ok {
			ready = append(ready, Ready{Token: tok})
		}
	}
	return ready, nil
}

func (m *epollMux) Close() error {
	return unix.Close(m.epfd)
}
