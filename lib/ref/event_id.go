// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// EventID is a Matrix event ID. Modern room versions use "$base64hash"
// with no server part, so the only check is the '$' sigil and a
// non-empty remainder.
type EventID struct {
	id string
}

// ParseEventID validates raw as "$something".
func ParseEventID(raw string) (EventID, error) {
	if raw == "" {
		return EventID{}, fmt.Errorf("empty event ID")
	}
	if raw[0] != '$' || len(raw) < 2 {
		return EventID{}, fmt.Errorf("invalid event ID %q: want '$' followed by the event hash", raw)
	}
	return EventID{id: raw}, nil
}

// MustParseEventID is ParseEventID that panics on error. For tests.
func MustParseEventID(raw string) EventID {
	eventID, err := ParseEventID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseEventID(%q): %v", raw, err))
	}
	return eventID
}

func (e EventID) String() string { return e.id }

// IsZero reports whether e is the zero value.
func (e EventID) IsZero() bool { return e.id == "" }

func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

// UnmarshalText validates data. Empty input yields the zero value.
func (e *EventID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*e = EventID{}
		return nil
	}
	parsed, err := ParseEventID(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
