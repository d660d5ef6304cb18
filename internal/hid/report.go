// Package hid models keyboard reports and the sinks that accept them.
package hid

import "strings"

// ReportSize is the length of a boot-protocol keyboard report.
const ReportSize = 8

// MaxKeys is the number of keycode slots in a report.
const MaxKeys = 6

// Modifier bits of the first report byte.
const (
	ModLeftCtrl   byte = 1 << 0
	ModLeftShift  byte = 1 << 1
	ModLeftAlt    byte = 1 << 2
	ModLeftGUI    byte = 1 << 3
	ModRightCtrl  byte = 1 << 4
	ModRightShift byte = 1 << 5
	ModRightAlt   byte = 1 << 6
	ModRightGUI   byte = 1 << 7
)

// Report is a keyboard input report: one modifier byte and up to six keycodes.
type Report struct {
	Modifier byte
	Keys     [MaxKeys]byte
}

// Release is the all-zero report.
var Release = Report{}

// IsRelease reports whether no modifier and no key is held.
func (r Report) IsRelease() bool {
	return r == Release
}

// Bytes encodes the report in boot-protocol layout.
func (r Report) Bytes() [ReportSize]byte {
	var buf [ReportSize]byte
	buf[0] = r.Modifier
	copy(buf[2:], r.Keys[:])
	return buf
}

func (r Report) String() string {
	if r.IsRelease() {
		return "release"
	}
	parts := make([]string, 0, 8+MaxKeys)
	for _, m := range modifierNames {
		if r.Modifier&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	for _, k := range r.Keys {
		if k == 0 {
			continue
		}
		parts = append(parts, keyName(k))
	}
	return strings.Join(parts, "+")
}

