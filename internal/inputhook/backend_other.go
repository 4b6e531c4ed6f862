//go:build !windows

package inputhook

type unsupportedBackend struct{}

func newSystemBackend() hookBackend { return unsupportedBackend{} }

func (unsupportedBackend) next() NextHook {
	return NextHookFunc(func(HookEvent) uintptr { return 0 })
}

func (unsupportedBackend) start(*Interceptor) (hookLoop, error) {
	return nil, &RegistrationError{Op: "install", Err: ErrUnsupported}
}

// NewSystemKeySender returns a KeySender that drops every event on
// platforms without keybd_event.
func NewSystemKeySender() KeySender {
	return KeySenderFunc(func(VKey, KeyAction) {})
}
