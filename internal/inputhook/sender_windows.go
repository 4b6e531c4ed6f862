//go:build windows

package inputhook

var procKeybdEvent = user32DLL.NewProc("keybd_event")

const (
	keyeventfKeyUp = 0x0002
	// syntheticMarker tags our injected keys in dwExtraInfo ("CMOD").
	syntheticMarker = 0x434D4F44
)

type systemKeySender struct{}

// NewSystemKeySender returns a KeySender backed by keybd_event.
func NewSystemKeySender() KeySender { return systemKeySender{} }

func (systemKeySender) Send(key VKey, action KeyAction) {
	var flags uintptr
	if action == KeyUp {
		flags = keyeventfKeyUp
	}
	procKeybdEvent.Call(uintptr(key), 0, flags, syntheticMarker)
}
