// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// RoomID is a server-assigned Matrix room ID. Older room versions use
// "!opaque:example.org"; room version 12 drops the server part and
// uses "!hash". Aliases ("#room:example.org") are not room IDs and are
// rejected.
type RoomID struct {
	id string
}

// ParseRoomID validates raw as '!' followed by an opaque part, with an
// optional ":server" suffix.
func ParseRoomID(raw string) (RoomID, error) {
	if raw == "" {
		return RoomID{}, fmt.Errorf("empty room ID")
	}
	if raw[0] != '!' || len(raw) < 2 {
		return RoomID{}, fmt.Errorf("invalid room ID %q: want '!' followed by the room identifier", raw)
	}
	if opaque, server, found := strings.Cut(raw[1:], ":"); found && (opaque == "" || server == "") {
		return RoomID{}, fmt.Errorf("room ID has an empty part: %q", raw)
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is ParseRoomID that panics on error. For tests.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomID(%q): %v", raw, err))
	}
	return roomID
}

func (r RoomID) String() string { return r.id }

// IsZero reports whether r is the zero value.
func (r RoomID) IsZero() bool { return r.id == "" }

func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

// UnmarshalText validates data. Empty input yields the zero value.
func (r *RoomID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RoomID{}
		return nil
	}
	parsed, err := ParseRoomID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
