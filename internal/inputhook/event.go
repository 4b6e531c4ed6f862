package inputhook

import "unsafe"

// Mouse messages delivered as wParam to a WH_MOUSE_LL hook.
const (
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E
)

// llmhfInjected is set in msllHookStruct.flags for synthesized mouse input.
const llmhfInjected = 0x00000001

// HookEvent is one raw invocation of the low-level mouse hook, exactly as
// the OS passed it. Code < 0 means the event must be passed on unexamined.
type HookEvent struct {
	Code    int32
	Message uintptr
	Payload uintptr
}

// MouseKind classifies a mouse message.
type MouseKind uint8

const (
	MouseOther MouseKind = iota
	MouseRightDown
	MouseRightUp
)

func (k MouseKind) String() string {
	switch k {
	case MouseRightDown:
		return "right-down"
	case MouseRightUp:
		return "right-up"
	default:
		return "other"
	}
}

// MouseEvent is the decoded form of a HookEvent. Only Kind drives the
// state machine; the rest is carried for diagnostics.
type MouseEvent struct {
	Kind     MouseKind
	Message  uint32
	X, Y     int32
	Time     uint32
	Injected bool
}

// msllHookStruct mirrors the Win32 MSLLHOOKSTRUCT.
// Field order and types must not be changed.
type msllHookStruct struct {
	ptX         int32
	ptY         int32
	mouseData   uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

func classifyMessage(msg uintptr) MouseKind {
	switch msg {
	case wmRButtonDown:
		return MouseRightDown
	case wmRButtonUp:
		return MouseRightUp
	default:
		return MouseOther
	}
}

// decodeMouseEvent is the only place the hook payload is reinterpreted.
// It refuses events with a negative code or a nil payload before touching memory.
func decodeMouseEvent(ev HookEvent) (MouseEvent, bool) {
	if ev.Code < 0 || ev.Payload == 0 {
		return MouseEvent{}, false
	}
	// go vet flags this conversion. lParam is an OS-owned MSLLHOOKSTRUCT that
	// stays valid for the duration of the callback; it is not Go memory.
	raw := (*msllHookStruct)(unsafe.Pointer(ev.Payload))
	return MouseEvent{
		Kind:     classifyMessage(ev.Message),
		Message:  uint32(ev.Message),
		X:        raw.ptX,
		Y:        raw.ptY,
		Time:     raw.time,
		Injected: raw.flags&llmhfInjected != 0,
	}, true
}
