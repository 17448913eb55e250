package routine

import (
	"fmt"
	"strings"
)

// SourceKind tells whether a task instance comes from a template or a one-off.
type SourceKind string

const (
	KindTemplate SourceKind = "template"
	KindOneOff   SourceKind = "oneoff"
)

func (k SourceKind) Valid() bool {
	return k == KindTemplate || k == KindOneOff
}

// ParseSourceKind validates a raw kind string.
func ParseSourceKind(raw string) (SourceKind, error) {
	kind := SourceKind(strings.TrimSpace(raw))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown source kind %q", raw)
	}
	return kind, nil
}

// CompletionKey identifies one task instance on one date.
type CompletionKey struct {
	Date     string
	Kind     SourceKind
	SourceID string
}

// String renders the key as "date:kind:id", the format used in exports.
func (k CompletionKey) String() string {
	return k.Date + ":" + string(k.Kind) + ":" + k.SourceID
}

// MakeCompletionKey builds the flat ledger key for a task instance.
func MakeCompletionKey(date string, kind SourceKind, sourceID string) string {
	return CompletionKey{Date: date, Kind: kind, SourceID: sourceID}.String()
}

// ParseCompletionKey splits a "date:kind:id" key. The id keeps any further colons.
func ParseCompletionKey(raw string) (CompletionKey, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return CompletionKey{}, fmt.Errorf("malformed completion key %q", raw)
	}
	if _, err := ParseDate(parts[0]); err != nil {
		return CompletionKey{}, fmt.Errorf("completion key %q: %w", raw, err)
	}
	kind, err := ParseSourceKind(parts[1])
	if err != nil {
		return CompletionKey{}, fmt.Errorf("completion key %q: %w", raw, err)
	}
	return CompletionKey{Date: parts[0], Kind: kind, SourceID: parts[2]}, nil
}

// Ledger is the sparse completion record. A missing key means not completed.
type Ledger map[string]bool

// Completed reports whether the instance is marked done.
func (l Ledger) Completed(date string, kind SourceKind, sourceID string) bool {
	if l == nil {
		return false
	}
	return l[MakeCompletionKey(date, kind, sourceID)]
}

// Toggle flips a key in place using the sparse encoding and returns the new state.
func (l Ledger) Toggle(date string, kind SourceKind, sourceID string) bool {
	key := MakeCompletionKey(date, kind, sourceID)
	if l[key] {
		delete(l, key)
		return false
	}
	l[key] = true
	return true
}

// Compact returns a copy holding only true entries.
func (l Ledger) Compact() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		if v {
			out[k] = true
		}
	}
	return out
}
