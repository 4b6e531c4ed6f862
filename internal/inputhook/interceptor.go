// Package inputhook turns every right-button press on the desktop into a
// Ctrl+Alt right-click by holding two synthetic modifiers for the duration
// of the press.
//
// Interceptor is the state machine run for each mouse event. Manager owns
// the global low-level hook that feeds it and guarantees the modifiers are
// released when the hook goes away.
package inputhook

import "sync/atomic"

// ButtonState is the right-button tracking state.
type ButtonState uint8

const (
	StateIdle ButtonState = iota
	StatePressed
)

func (s ButtonState) String() string {
	if s == StatePressed {
		return "pressed"
	}
	return "idle"
}

// NextHook passes an event to the next hook in the system-wide chain and
// returns its result.
type NextHook interface {
	CallNext(ev HookEvent) uintptr
}

// NextHookFunc adapts a function to NextHook.
type NextHookFunc func(ev HookEvent) uintptr

// CallNext calls f(ev).
func (f NextHookFunc) CallNext(ev HookEvent) uintptr { return f(ev) }

// Stats is a snapshot of interceptor counters.
type Stats struct {
	Events         uint64 `json:"events"`
	RightPresses   uint64 `json:"right_presses"`
	RightReleases  uint64 `json:"right_releases"`
	Duplicates     uint64 `json:"duplicates"`
	ForcedReleases uint64 `json:"forced_releases"`
	Anomalies      uint64 `json:"anomalies"`
}

type counters struct {
	events     atomic.Uint64
	presses    atomic.Uint64
	releases   atomic.Uint64
	duplicates atomic.Uint64
	forced     atomic.Uint64
	anomalies  atomic.Uint64
}

// Interceptor is the per-event state machine.
//
// Process and ForceRelease must be called from a single thread of control
// (the hook thread). Stats is safe from any goroutine.
type Interceptor struct {
	sender KeySender
	next   NextHook
	state  ButtonState
	stats  counters
}

// NewInterceptor returns an Interceptor in StateIdle.
func NewInterceptor(sender KeySender, next NextHook) *Interceptor {
	return &Interceptor{sender: sender, next: next}
}

// Process handles one hook invocation and returns the value the hook
// procedure must return to the OS. Every event is forwarded exactly once;
// a panic inside the state machine degrades to a plain forward.
func (ic *Interceptor) Process(ev HookEvent) (result uintptr) {
	if ev.Code < 0 {
		return ic.next.CallNext(ev)
	}

	forwarded := false
	defer func() {
		if r := recover(); r != nil {
			ic.stats.anomalies.Add(1)
			if !forwarded {
				result = ic.next.CallNext(ev)
			}
		}
	}()

	ic.stats.events.Add(1)
	me, ok := decodeMouseEvent(ev)
	if !ok {
		ic.stats.anomalies.Add(1)
		forwarded = true
		return ic.next.CallNext(ev)
	}

	switch me.Kind {
	case MouseRightDown:
		// Modifiers go down first so downstream consumers see them held.
		if ic.state == StateIdle {
			ic.pressModifiers()
			ic.state = StatePressed
			ic.stats.presses.Add(1)
		} else {
			ic.stats.duplicates.Add(1)
		}
		forwarded = true
		return ic.next.CallNext(ev)
	case MouseRightUp:
		// The up event must still observe the modifiers held.
		forwarded = true
		result = ic.next.CallNext(ev)
		if ic.state == StatePressed {
			ic.state = StateIdle
			ic.releaseSequence()
			ic.stats.releases.Add(1)
		}
		return result
	default:
		forwarded = true
		return ic.next.CallNext(ev)
	}
}

// ForceRelease emits the release sequence unconditionally and resets the
// state to StateIdle. Safe to call while idle.
func (ic *Interceptor) ForceRelease() {
	defer func() {
		if r := recover(); r != nil {
			ic.stats.anomalies.Add(1)
		}
	}()
	ic.state = StateIdle
	ic.stats.forced.Add(1)
	ic.releaseSequence()
}

// Stats returns a snapshot of the counters.
func (ic *Interceptor) Stats() Stats {
	return Stats{
		Events:         ic.stats.events.Load(),
		RightPresses:   ic.stats.presses.Load(),
		RightReleases:  ic.stats.releases.Load(),
		Duplicates:     ic.stats.duplicates.Load(),
		ForcedReleases: ic.stats.forced.Load(),
		Anomalies:      ic.stats.anomalies.Load(),
	}
}

func (ic *Interceptor) pressModifiers() {
	ic.sender.Send(ModifierA, KeyDown)
	ic.sender.Send(ModifierB, KeyDown)
}

// releaseSequence order is fixed: suppression tap, then B, then A.
func (ic *Interceptor) releaseSequence() {
	ic.sender.Send(SuppressionKey, KeyDown)
	ic.sender.Send(SuppressionKey, KeyUp)
	ic.sender.Send(ModifierB, KeyUp)
	ic.sender.Send(ModifierA, KeyUp)
}
