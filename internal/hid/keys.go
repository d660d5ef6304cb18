package hid

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a key or modifier name that has no usage code.
var ErrUnknownKey = errors.New("unknown key")

type modifierName struct {
	name string
	bit  byte
}

var modifierNames = []modifierName{
	{name: "ctrl", bit: ModLeftCtrl},
	{name: "shift", bit: ModLeftShift},
	{name: "alt", bit: ModLeftAlt},
	{name: "gui", bit: ModLeftGUI},
	{name: "rctrl", bit: ModRightCtrl},
	{name: "rshift", bit: ModRightShift},
	{name: "ralt", bit: ModRightAlt},
	{name: "rgui", bit: ModRightGUI},
}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"super":   "gui",
	"win":     "gui",
	"cmd":     "gui",
	"meta":    "gui",
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "escape",
	"del":    "delete",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
}

// keyCodes maps names to HID keyboard usage IDs (usage page 0x07).
var keyCodes = buildKeyCodes()

func buildKeyCodes() map[string]byte {
	codes := map[string]byte{
		"enter":     0x28,
		"escape":    0x29,
		"backspace": 0x2a,
		"tab":       0x2b,
		"space":     0x2c,
		"minus":     0x2d,
		"equal":     0x2e,
		"lbracket":  0x2f,
		"rbracket":  0x30,
		"backslash": 0x31,
		"semicolon": 0x33,
		"quote":     0x34,
		"grave":     0x35,
		"comma":     0x36,
		"period":    0x37,
		"slash":     0x38,
		"capslock":  0x39,
		"printscr":  0x46,
		"insert":    0x49,
		"home":      0x4a,
		"pageup":    0x4b,
		"delete":    0x4c,
		"end":       0x4d,
		"pagedown":  0x4e,
		"right":     0x4f,
		"left":      0x50,
		"down":      0x51,
		"up":        0x52,
		"mute":      0x7f,
		"volup":     0x80,
		"voldown":   0x81,
	}
	for i := 0; i < 26; i++ {
		codes[string(rune('a'+i))] = byte(0x04 + i)
	}
	codes["0"] = 0x27
	for i := 1; i <= 9; i++ {
		codes[strconv.Itoa(i)] = byte(0x1e + i - 1)
	}
	for i := 1; i <= 12; i++ {
		codes["f"+strconv.Itoa(i)] = byte(0x3a + i - 1)
	}
	for i := 13; i <= 24; i++ {
		codes["f"+strconv.Itoa(i)] = byte(0x68 + i - 13)
	}
	return codes
}

var codeNames = func() map[byte]string {
	names := make(map[byte]string, len(keyCodes))
	for name, code := range keyCodes {
		names[code] = name
	}
	return names
}()

func keyName(code byte) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", code)
}

// ParseShortcut parses a chord such as "ctrl+alt+h" into a key-down report.
func ParseShortcut(chord string) (Report, error) {
	var r Report
	chord = strings.TrimSpace(strings.ToLower(chord))
	if chord == "" {
		return r, fmt.Errorf("shortcut is empty")
	}
	slot := 0
	for _, part := range strings.Split(chord, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return r, fmt.Errorf("shortcut %q has an empty key", chord)
		}
		if bit, ok := lookupModifier(part); ok {
			r.Modifier |= bit
			continue
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		code, ok := keyCodes[part]
		if !ok {
			return r, fmt.Errorf("shortcut %q: %w %q", chord, ErrUnknownKey, part)
		}
		if slot >= MaxKeys {
			return r, fmt.Errorf("shortcut %q has more than %d keys", chord, MaxKeys)
		}
		r.Keys[slot] = code
		slot++
	}
	if r.IsRelease() {
		return r, fmt.Errorf("shortcut %q presses nothing", chord)
	}
	return r, nil
}

func lookupModifier(name string) (byte, bool) {
	if alias, ok := modifierAliases[name]; ok {
		name = alias
	}
	for _, m := range modifierNames {
		if m.name == name {
			return m.bit, true
		}
	}
	return 0, false
}

// ModifierNames lists accepted modifier names.
func ModifierNames() []string {
	names := make([]string, 0, len(modifierNames))
	for _, m := range modifierNames {
		names = append(names, m.name)
	}
	return names
}

// KeyNames lists accepted key names in usage order.
func KeyNames() []string {
	names := make([]string, 0, len(keyCodes))
	for name := range keyCodes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return keyCodes[names[i]] < keyCodes[names[j]]
	})
	return names
}
