package inputhook

// VKey is a Win32 virtual-key code.
type VKey uint8

// KeyAction selects press or release for a synthetic key event.
type KeyAction uint8

const (
	KeyDown KeyAction = iota
	KeyUp
)

func (a KeyAction) String() string {
	if a == KeyUp {
		return "up"
	}
	return "down"
}

const (
	// ModifierA is pressed first and released last.
	ModifierA VKey = 0xA2 // VK_LCONTROL
	// ModifierB is pressed second and released first.
	ModifierB VKey = 0xA4 // VK_LMENU
	// SuppressionKey is unassigned on every layout. Tapping it before the
	// modifiers go up keeps Windows from treating the Alt release as a bare
	// Alt tap, which would activate the focused window's menu bar.
	SuppressionKey VKey = 0xE8
)

// KeySender injects one synthetic key event. Implementations are
// fire-and-forget: there is no acknowledgement and callers never retry.
type KeySender interface {
	Send(key VKey, action KeyAction)
}

// KeySenderFunc adapts a function to KeySender.
type KeySenderFunc func(key VKey, action KeyAction)

// Send calls f(key, action).
func (f KeySenderFunc) Send(key VKey, action KeyAction) { f(key, action) }
