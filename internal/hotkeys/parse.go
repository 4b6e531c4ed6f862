package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

// Win32 MOD_* flags. MOD_NOREPEAT keeps a held chord from re-triggering.
const (
	modAlt      Modifier = 0x0001
	modControl  Modifier = 0x0002
	modShift    Modifier = 0x0004
	modWin      Modifier = 0x0008
	modNoRepeat Modifier = 0x4000
)

const (
	vkTab    VKey = 0x09
	vkReturn VKey = 0x0D
	vkPause  VKey = 0x13
	vkEscape VKey = 0x1B
	vkSpace  VKey = 0x20
	vkPrior  VKey = 0x21
	vkNext   VKey = 0x22
	vkEnd    VKey = 0x23
	vkHome   VKey = 0x24
	vkLeft   VKey = 0x25
	vkUp     VKey = 0x26
	vkRight  VKey = 0x27
	vkDown   VKey = 0x28
	vkInsert VKey = 0x2D
	vkDelete VKey = 0x2E
	vkF1     VKey = 0x70
	vkOem3   VKey = 0xC0

	maxFunctionKey = 24
)

// modifierOrder fixes the normalized spelling regardless of input order.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{modControl, "Ctrl"},
	{modAlt, "Alt"},
	{modShift, "Shift"},
	{modWin, "Win"},
}

var modifierByName = map[string]Modifier{
	"CTRL":    modControl,
	"CONTROL": modControl,
	"SHIFT":   modShift,
	"ALT":     modAlt,
	"WIN":     modWin,
	"SUPER":   modWin,
}

var keyByName = map[string]VKey{
	"SPACE":    vkSpace,
	"TAB":      vkTab,
	"ENTER":    vkReturn,
	"RETURN":   vkReturn,
	"ESC":      vkEscape,
	"ESCAPE":   vkEscape,
	"DELETE":   vkDelete,
	"INSERT":   vkInsert,
	"HOME":     vkHome,
	"END":      vkEnd,
	"PAGEUP":   vkPrior,
	"PAGEDOWN": vkNext,
	"PAUSE":    vkPause,
	"LEFT":     vkLeft,
	"RIGHT":    vkRight,
	"UP":       vkUp,
	"DOWN":     vkDown,
}

// ParseBinding parses a binding like "Ctrl+Alt+F12". At least one modifier
// is required so a bare key is never grabbed system-wide.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	for _, token := range parts[:len(parts)-1] {
		mod, ok := modifierByName[strings.ToUpper(strings.TrimSpace(token))]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		modifiers |= mod
	}

	key, keyName, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, err
	}

	names := make([]string, 0, len(modifierOrder)+1)
	for _, m := range modifierOrder {
		if modifiers&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	names = append(names, keyName)

	return Binding{
		modifiers:  modifiers,
		key:        key,
		normalized: strings.Join(names, "+"),
	}, nil
}

func parseKey(raw string) (VKey, string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, "", fmt.Errorf("missing hotkey key token")
	}

	if key, ok := keyByName[token]; ok {
		return key, token, nil
	}
	if n, ok := functionKeyNumber(token); ok {
		return vkF1 + VKey(n-1), token, nil
	}

	if len(token) == 1 {
		ch := token[0]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return VKey(ch), token, nil
		case ch == '`':
			return vkOem3, "`", nil
		}
	}
	if token == "BACKQUOTE" || token == "GRAVE" {
		return vkOem3, "`", nil
	}

	if hex, ok := strings.CutPrefix(token, "0X"); ok {
		value, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return 0, "", fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, "", fmt.Errorf("key code 0x00 is not a valid virtual key")
		}
		return VKey(value), fmt.Sprintf("0x%02X", value), nil
	}

	return 0, "", fmt.Errorf("unknown key %q in hotkey spec", raw)
}

func functionKeyNumber(token string) (int, bool) {
	digits, ok := strings.CutPrefix(token, "F")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > maxFunctionKey {
		return 0, false
	}
	return n, true
}
