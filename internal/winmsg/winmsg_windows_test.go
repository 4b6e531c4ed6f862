//go:build windows

package winmsg

import (
	"testing"
	"unsafe"
)

// TestMsgSize verifies that Msg matches the Win32 MSG layout.
func TestMsgSize(t *testing.T) {
	// On amd64/arm64: 48 bytes. On 386: 28 bytes.
	ptrSize := unsafe.Sizeof(uintptr(0))
	var expectedSize uintptr
	switch ptrSize {
	case 8:
		expectedSize = 48
	case 4:
		expectedSize = 28
	default:
		t.Skipf("unknown pointer size %d", ptrSize)
	}
	if got := unsafe.Sizeof(Msg{}); got != expectedSize {
		t.Fatalf("unsafe.Sizeof(Msg{}) = %d, want %d (pointer size=%d)", got, expectedSize, ptrSize)
	}
}

func TestPostRejectsZeroThread(t *testing.T) {
	if err := Post(0, WMApp, 0, 0); err == nil {
		t.Fatal("Post(0, ...) expected error")
	}
}

func TestEnsureQueueReturnsThreadID(t *testing.T) {
	if err := Load(); err != nil {
		t.Skipf("user32 unavailable: %v", err)
	}
	id, err := EnsureQueue()
	if err != nil {
		t.Fatalf("EnsureQueue() error = %v", err)
	}
	if id == 0 {
		t.Fatal("EnsureQueue() returned thread ID 0")
	}
}
