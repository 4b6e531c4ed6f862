package hotkeys

// Modifier is a Win32 MOD_* bitmask.
type Modifier uint32

// VKey is a Win32 virtual-key code.
type VKey uint32

// Binding is a parsed toggle chord. The zero value means "no binding";
// build real ones with ParseBinding.
type Binding struct {
	modifiers  Modifier
	key        VKey
	normalized string
}

func (b Binding) Modifiers() Modifier { return b.modifiers }

func (b Binding) Key() VKey { return b.key }

// Normalized returns the canonical spelling, e.g. "Ctrl+Alt+F12".
func (b Binding) Normalized() string { return b.normalized }

func (b Binding) String() string { return b.normalized }

// IsZero reports whether b was never parsed.
func (b Binding) IsZero() bool { return b.key == 0 }
