// Copyright © 2024 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

//go:build windows

// Package winraw is the Windows engine. Windows has no waitable
// per-device descriptor set to multiplex the way epoll does: Raw Input
// and device-change notifications both arrive as messages on one
// hidden window, demultiplexed by message field rather than by fd
// readiness. So, unlike the Linux reference path (internal/mux +
// internal/hotplug + internal/linuxinput driven generically by
// internal/worker), winraw owns its message-only window, its own raw
// input decode, and its own acquisition loop end to end — following the
// usual cgo-wraps-Win32 convention this module uses for native layers,
// and a message-only-window plus RegisterDeviceNotification pattern
// common to Win32 raw-input consumers.
package winraw

/*
#cgo windows LDFLAGS: -luser32 -lkernel32

#include <windows.h>
#include <dbt.h>
#include <string.h>

#define WINRAW_QUEUE_SIZE 4096

typedef struct {
	int device_id;
	int kind; // 0 = raw Event, 1 = resolved KeyEvent (WM_CHAR)
	int type;
	int code;
	int value;
	long long timestamp_ns;
	unsigned mods;
	char text[8];
} winraw_record;

static struct {
	volatile LONG stop;
	HWND hwnd;
	CRITICAL_SECTION lock;
	winraw_record queue[WINRAW_QUEUE_SIZE];
	int head;
	int tail;
	volatile LONG device_count;
	unsigned mods;
} g;

static long long winraw_now_ns(void) {
	LARGE_INTEGER fq, ct;
	QueryPerformanceFrequency(&fq);
	QueryPerformanceCounter(&ct);
	double s = (double)ct.QuadPart / (double)fq.QuadPart;
	return (long long)(s * 1000000000.0);
}

static void winraw_push(const winraw_record *rec) {
	EnterCriticalSection(&g.lock);
	int next = (g.head + 1) % WINRAW_QUEUE_SIZE;
	if (next != g.tail) {
		g.queue[g.head] = *rec;
		g.head = next;
	}
	LeaveCriticalSection(&g.lock);
}

// winraw_pop_many drains up to max pending records into out, returning
// how many were written; mirrors internal/ring's PopMany contract so the
// Go side can treat this exactly like draining a ring.
static int winraw_pop_many(winraw_record *out, int max) {
	int n = 0;
	EnterCriticalSection(&g.lock);
	while (n < max && g.tail != g.head) {
		out[n++] = g.queue[g.tail];
		g.tail = (g.tail + 1) % WINRAW_QUEUE_SIZE;
	}
	LeaveCriticalSection(&g.lock);
	return n;
}

// evdev-compatible type/code aliases so the Go side shares one Event
// shape across platforms.
#define WINRAW_EV_KEY 0x01
#define WINRAW_EV_REL 0x02
#define WINRAW_REL_X 0x00
#define WINRAW_REL_Y 0x01
#define WINRAW_REL_WHEEL 0x08
#define WINRAW_BTN_LEFT 0x110
#define WINRAW_BTN_RIGHT 0x111
#define WINRAW_BTN_MIDDLE 0x112
#define WINRAW_BTN_SIDE 0x113
#define WINRAW_BTN_EXTRA 0x114

static void winraw_handle_rawinput(HRAWINPUT hri) {
	UINT size = 0;
	if (GetRawInputData(hri, RID_INPUT, NULL, &size, sizeof(RAWINPUTHEADER)) != 0 || size == 0)
		return;
	BYTE stackBuf[512];
	RAWINPUT *ri = (RAWINPUT *)stackBuf;
	if (size > sizeof(stackBuf))
		ri = (RAWINPUT *)malloc(size);
	if (!ri) return;
	if (GetRawInputData(hri, RID_INPUT, ri, &size, sizeof(RAWINPUTHEADER)) != size) {
		if ((void *)ri != (void *)stackBuf) free(ri);
		return;
	}
	long long ts = winraw_now_ns();
	int device_id = (int)(INT_PTR)ri->header.hDevice;
	winraw_record rec;
	memset(&rec, 0, sizeof(rec));
	rec.device_id = device_id;
	rec.timestamp_ns = ts;
	rec.mods = g.mods;

	if (ri->header.dwType == RIM_TYPEKEYBOARD) {
		const RAWKEYBOARD *kb = &ri->data.keyboard;
		rec.kind = 0;
		rec.type = WINRAW_EV_KEY;
		rec.code = (int)kb->MakeCode;
		rec.value = (kb->Flags & RI_KEY_BREAK) ? 0 : 1;
		winraw_push(&rec);
	} else if (ri->header.dwType == RIM_TYPEMOUSE) {
		const RAWMOUSE *m = &ri->data.mouse;
		if (m->usFlags & MOUSE_MOVE_RELATIVE) {
			if (m->lLastX) {
				rec.type = WINRAW_EV_REL; rec.code = WINRAW_REL_X; rec.value = (int)m->lLastX;
				winraw_push(&rec);
			}
			if (m->lLastY) {
				rec.type = WINRAW_EV_REL; rec.code = WINRAW_REL_Y; rec.value = -(int)m->lLastY;
				winraw_push(&rec);
			}
		}
		if (m->usButtonFlags) {
			#define BTN(flagdown, flagup, code) \
				if (m->usButtonFlags & flagdown) { rec.type = WINRAW_EV_KEY; rec.code = code; rec.value = 1; winraw_push(&rec); } \
				if (m->usButtonFlags & flagup)   { rec.type = WINRAW_EV_KEY; rec.code = code; rec.value = 0; winraw_push(&rec); }
			BTN(RI_MOUSE_LEFT_BUTTON_DOWN, RI_MOUSE_LEFT_BUTTON_UP, WINRAW_BTN_LEFT)
			BTN(RI_MOUSE_RIGHT_BUTTON_DOWN, RI_MOUSE_RIGHT_BUTTON_UP, WINRAW_BTN_RIGHT)
			BTN(RI_MOUSE_MIDDLE_BUTTON_DOWN, RI_MOUSE_MIDDLE_BUTTON_UP, WINRAW_BTN_MIDDLE)
			BTN(RI_MOUSE_BUTTON_4_DOWN, RI_MOUSE_BUTTON_4_UP, WINRAW_BTN_SIDE)
			BTN(RI_MOUSE_BUTTON_5_DOWN, RI_MOUSE_BUTTON_5_UP, WINRAW_BTN_EXTRA)
			#undef BTN
			if (m->usButtonFlags & RI_MOUSE_WHEEL) {
				SHORT dz = (SHORT)m->usButtonData;
				rec.type = WINRAW_EV_REL; rec.code = WINRAW_REL_WHEEL; rec.value = (int)(dz / WHEEL_DELTA);
				winraw_push(&rec);
			}
		}
	}
	if ((void *)ri != (void *)stackBuf) free(ri);
}

// winraw_mods snapshots {Shift,Ctrl,Alt,Logo} via GetKeyState, matching
// the bit layout of internal/types.Modifier.
static unsigned winraw_mods(void) {
	unsigned m = 0;
	if (GetKeyState(VK_SHIFT) & 0x8000) m |= 1u << 0;
	if (GetKeyState(VK_CONTROL) & 0x8000) m |= 1u << 1;
	if (GetKeyState(VK_MENU) & 0x8000) m |= 1u << 2;
	if ((GetKeyState(VK_LWIN) | GetKeyState(VK_RWIN)) & 0x8000) m |= 1u << 3;
	return m;
}

static LRESULT CALLBACK winraw_wndproc(HWND hwnd, UINT msg, WPARAM wParam, LPARAM lParam) {
	switch (msg) {
	case WM_INPUT:
		winraw_handle_rawinput((HRAWINPUT)lParam);
		return DefWindowProcW(hwnd, msg, wParam, lParam);
	case WM_KEYDOWN:
	case WM_KEYUP:
	case WM_SYSKEYDOWN:
	case WM_SYSKEYUP:
		g.mods = winraw_mods();
		break;
	case WM_CHAR: {
		winraw_record rec;
		memset(&rec, 0, sizeof(rec));
		rec.device_id = -1;
		rec.kind = 1;
		rec.value = 1;
		rec.mods = g.mods;
		rec.timestamp_ns = winraw_now_ns();
		wchar_t wc = (wchar_t)wParam;
		int n = WideCharToMultiByte(CP_UTF8, 0, &wc, 1, rec.text, (int)sizeof(rec.text) - 1, NULL, NULL);
		if (n > 0) rec.text[n] = '\0';
		winraw_push(&rec);
		break;
	}
	case WM_DEVICECHANGE:
		if (wParam == DBT_DEVICEARRIVAL) InterlockedIncrement(&g.device_count);
		if (wParam == DBT_DEVICEREMOVECOMPLETE) InterlockedDecrement(&g.device_count);
		break;
	case WM_DESTROY:
		PostQuitMessage(0);
		return 0;
	}
	return DefWindowProcW(hwnd, msg, wParam, lParam);
}

static const wchar_t *WINRAW_CLASS = L"AsyncinRawInputWindow";

// winraw_create_window registers the window class, creates the hidden
// message-only window, and registers for Raw Input (keyboard usage page
// 1/usage 6, mouse usage page 1/usage 2) with INPUT_SINK so events
// arrive even when no window has focus.
static int winraw_create_window(void) {
	WNDCLASSEXW wc;
	memset(&wc, 0, sizeof(wc));
	wc.cbSize = sizeof(wc);
	wc.lpfnWndProc = winraw_wndproc;
	wc.hInstance = GetModuleHandleW(NULL);
	wc.lpszClassName = WINRAW_CLASS;
	RegisterClassExW(&wc);

	g.hwnd = CreateWindowExW(0, WINRAW_CLASS, L"", 0, 0, 0, 0, 0, HWND_MESSAGE, NULL, wc.hInstance, NULL);
	if (!g.hwnd) return -1;

	RAWINPUTDEVICE rid[2];
	memset(rid, 0, sizeof(rid));
	rid[0].usUsagePage = 0x01; rid[0].usUsage = 0x06;
	rid[0].dwFlags = RIDEV_INPUTSINK;
	rid[0].hwndTarget = g.hwnd;
	rid[1].usUsagePage = 0x01; rid[1].usUsage = 0x02;
	rid[1].dwFlags = RIDEV_INPUTSINK;
	rid[1].hwndTarget = g.hwnd;
	if (!RegisterRawInputDevices(rid, 2, sizeof(RAWINPUTDEVICE))) {
		DestroyWindow(g.hwnd);
		g.hwnd = NULL;
		return -1;
	}

	DEV_BROADCAST_DEVICEINTERFACE_W filter;
	memset(&filter, 0, sizeof(filter));
	filter.dbcc_size = sizeof(filter);
	filter.dbcc_devicetype = DBT_DEVTYP_DEVICEINTERFACE;
	RegisterDeviceNotificationW(g.hwnd, &filter, DEVICE_NOTIFY_WINDOW_HANDLE);
	return 0;
}

// winraw_pump registers the window (once) then runs the message loop
// until winraw_stop is called, waking at least every periodMs so the Go
// caller's stop flag is honored with bounded latency.
static int winraw_pump(unsigned periodMs) {
	InitializeCriticalSection(&g.lock);
	if (winraw_create_window() != 0) return -1;
	SetTimer(g.hwnd, 1, periodMs, NULL);
	MSG msg;
	while (!InterlockedCompareExchange(&g.stop, 0, 0)) {
		BOOL got = GetMessageW(&msg, NULL, 0, 0);
		if (got <= 0) break;
		TranslateMessage(&msg);
		DispatchMessageW(&msg);
	}
	KillTimer(g.hwnd, 1);
	DestroyWindow(g.hwnd);
	g.hwnd = NULL;
	DeleteCriticalSection(&g.lock);
	return 0;
}

static void winraw_request_stop(void) {
	InterlockedExchange(&g.stop, 1);
	if (g.hwnd) PostMessageW(g.hwnd, WM_CLOSE, 0, 0);
}

static int winraw_device_count(void) {
	return (int)InterlockedCompareExchange(&g.device_count, 0, 0);
}
*/
import "C"

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/galvanized/asyncin/internal/keymap"
	"github.com/galvanized/asyncin/internal/ring"
	"github.com/galvanized/asyncin/internal/types"
	"github.com/galvanized/asyncin/internal/worker"
)

// pumpPeriodMS matches internal/worker.ReadinessTimeout so the Windows
// engine honors the same stop-signal liveness bound.
const pumpPeriodMS = 50

// EventCallback and KeyCallback mirror internal/worker's sink shapes so
// the root package can wire either engine the same way.
type EventCallback func(types.Event)
type KeyCallback func(types.KeyEvent)

// Engine is the Windows acquisition engine, internal/worker's
// counterpart for the Raw Input backend.
type Engine struct {
	eventRing *ring.Ring[types.Event]
	keyRing   *ring.Ring[types.KeyEvent]

	callback    atomic.Pointer[EventCallback]
	keyCallback atomic.Pointer[KeyCallback]

	keymapMu sync.Mutex
	km       keymap.Keymap

	statsMu sync.Mutex
	stats   worker.Stats

	stop      chan struct{}
	pumpDone  chan struct{}
	drainDone chan struct{}
	stopOnce  sync.Once
}

// Stats returns a snapshot of the running delivered/dropped counters,
// the same shape internal/worker exposes.
func (e *Engine) Stats() worker.Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// New builds a Windows Engine. eventRing/keyRing are the ring sinks
// used when no callback is registered.
func New(eventRing *ring.Ring[types.Event], keyRing *ring.Ring[types.KeyEvent]) *Engine {
	return &Engine{
		eventRing: eventRing, keyRing: keyRing,
		stop: make(chan struct{}), pumpDone: make(chan struct{}), drainDone: make(chan struct{}),
	}
}

func (e *Engine) SetCallback(cb EventCallback) {
	if cb == nil {
		e.callback.Store(nil)
		return
	}
	e.callback.Store(&cb)
}

func (e *Engine) SetKeyCallback(cb KeyCallback) {
	if cb == nil {
		e.keyCallback.Store(nil)
		return
	}
	e.keyCallback.Store(&cb)
}

func (e *Engine) SetKeymap(k keymap.Keymap) {
	e.keymapMu.Lock()
	prev := e.km
	e.km = k
	e.keymapMu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// DeviceCount reports the Raw Input device-change counter maintained by
// WM_DEVICECHANGE; Windows Raw Input has no per-device open/registry
// step the way evdev does, so this is the engine's only notion of
// device_count.
func (e *Engine) DeviceCount() int { return int(C.winraw_device_count()) }

// Run locks the calling goroutine to its OS thread (HWNDs are
// thread-affine), creates the hidden window there, and blocks pumping
// and draining messages until Stop is called.
func (e *Engine) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	go e.drainLoop()
	C.winraw_pump(C.uint(pumpPeriodMS))
	close(e.pumpDone)
	<-e.drainDone
}

// Stop requests the message loop to exit and waits for Run to return.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stop)
		C.winraw_request_stop()
	})
	<-e.pumpDone
}

// drainLoop periodically pops decoded records off the C-side queue and
// publishes them; it runs on its own goroutine since winraw_pump blocks
// the thread it was called from inside GetMessageW.
func (e *Engine) drainLoop() {
	var buf [256]C.winraw_record
	for {
		select {
		case <-e.stop:
			e.drainOnce(buf[:])
			close(e.drainDone)
			return
		default:
		}
		n := C.winraw_pop_many(&buf[0], C.int(len(buf)))
		e.publishRecords(buf[:n])
		if n == 0 {
			time.Sleep(pumpPeriodMS * time.Millisecond)
		}
	}
}

func (e *Engine) drainOnce(buf []C.winraw_record) {
	n := C.winraw_pop_many(&buf[0], C.int(len(buf)))
	e.publishRecords(buf[:n])
}

func (e *Engine) publishRecords(recs []C.winraw_record) {
	for _, rec := range recs {
		if rec.kind == 1 {
			e.publishKey(decodeKeyRecord(rec))
			continue
		}
		ev := decodeEventRecord(rec)
		e.publish(ev)
		if ev.Type == types.KEY {
			e.dispatchKeymap(ev)
		}
	}
}

func decodeEventRecord(rec C.winraw_record) types.Event {
	return types.Event{
		DeviceID: int(rec.device_id),
		// the struct's C field is named "type"; cgo renames it to
		// "_type" in the generated Go binding since type is a keyword.
		Type:        int(rec._type),
		Code:        int(rec.code),
		Value:       int32(rec.value),
		TimestampNS: int64(rec.timestamp_ns),
		Extra:       int(rec.mods),
	}
}

func decodeKeyRecord(rec C.winraw_record) types.KeyEvent {
	return types.KeyEvent{
		DeviceID:    int(rec.device_id),
		TimestampNS: int64(rec.timestamp_ns),
		Down:        rec.value != 0,
		Mods:        types.Modifier(rec.mods),
		Text:        C.GoString(&rec.text[0]),
	}
}

// Publish feeds ev through the same callback-or-ring path WM_INPUT
// decoding uses. See worker.Worker.Publish for why this exists.
func (e *Engine) Publish(ev types.Event) { e.publish(ev) }

func (e *Engine) publish(ev types.Event) {
	if cb := e.callback.Load(); cb != nil {
		(*cb)(ev)
		e.statsMu.Lock()
		e.stats.Delivered++
		e.statsMu.Unlock()
		return
	}
	if e.eventRing == nil {
		return
	}
	accepted := e.eventRing.Push(ev)
	e.statsMu.Lock()
	if accepted {
		e.stats.Delivered++
	} else {
		e.stats.Dropped++
	}
	e.statsMu.Unlock()
}

func (e *Engine) publishKey(ev types.KeyEvent) {
	if cb := e.keyCallback.Load(); cb != nil {
		(*cb)(ev)
		return
	}
	if e.keyRing != nil {
		e.keyRing.Push(ev)
	}
}

// dispatchKeymap feeds a synthetic KEY Event (scancode in Code, 1/0 in
// Value, modifier snapshot in Extra) through internal/keymap's Windows
// provider, which on this platform is a thin WM_CHAR/WM_KEYDOWN adapter
// rather than a native state machine (see keymap_windows.go).
func (e *Engine) dispatchKeymap(ev types.Event) {
	e.keymapMu.Lock()
	k := e.km
	e.keymapMu.Unlock()
	if k == nil {
		return
	}
	out, ok, err := k.Dispatch(ev)
	if err != nil || !ok {
		return
	}
	e.publishKey(out)
}

