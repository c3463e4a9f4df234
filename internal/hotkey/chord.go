// Package hotkey defines key chords and the global shortcut event source.
package hotkey

import (
	"sort"
	"strings"
)

// Chord is a canonical, order-independent representation of a set of
// simultaneously pressed keys. Two chords built from the same keys in any
// order compare equal, so a Chord is usable directly as a map key.
type Chord string

// NewChord canonicalizes a set of key names into a Chord. Names are
// lowercased, deduplicated and sorted; empty names are dropped.
func NewChord(keys ...string) Chord {
	seen := make(map[string]struct{}, len(keys))
	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		normalized = append(normalized, k)
	}
	sort.Strings(normalized)
	return Chord(strings.Join(normalized, "+"))
}

// ParseChord parses a "ctrl+shift+a" style string into a canonical Chord.
func ParseChord(s string) Chord {
	return NewChord(strings.Split(s, "+")...)
}

// Keys returns the chord's key names.
func (c Chord) Keys() []string {
	if c == "" {
		return nil
	}
	return strings.Split(string(c), "+")
}

// IsZero reports whether the chord holds no keys.
func (c Chord) IsZero() bool {
	return c == ""
}

func (c Chord) String() string {
	return string(c)
}
