package inputhook

import (
	"fmt"
	"sync"
	"testing"
	"unsafe"
)

// keyRecorder records every synthetic key event and every forward in one
// shared timeline so tests can assert relative ordering.
type keyRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *keyRecorder) Send(key VKey, action KeyAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%s:%s", keyName(key), action))
}

func (r *keyRecorder) CallNext(ev HookEvent) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("forward:%#x", ev.Message))
	return 0
}

func (r *keyRecorder) note(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *keyRecorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func keyName(k VKey) string {
	switch k {
	case ModifierA:
		return "A"
	case ModifierB:
		return "B"
	case SuppressionKey:
		return "S"
	default:
		return fmt.Sprintf("%#x", uint8(k))
	}
}

var (
	pressPair       = []string{"A:down", "B:down"}
	releaseSequence = []string{"S:down", "S:up", "B:up", "A:up"}
)

// Hook payloads travel as uintptr, which the GC does not track. Package-level
// storage never moves, unlike a local that may live on a growable stack.
var (
	processPayload = msllHookStruct{ptX: 10, ptY: 20, time: 1234}
	decodePayload  = msllHookStruct{ptX: -5, ptY: 300, flags: llmhfInjected, time: 99}
)

func payloadAddr(p *msllHookStruct) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// processMessage runs msg through ic with a real MSLLHOOKSTRUCT payload.
func processMessage(t *testing.T, ic *Interceptor, code int32, msg uintptr) uintptr {
	t.Helper()
	return ic.Process(HookEvent{Code: code, Message: msg, Payload: payloadAddr(&processPayload)})
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func equalTimeline(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("timeline = %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("timeline[%d] = %q, want %q\nfull: %v", i, got[i], want[i], got)
		}
	}
}
