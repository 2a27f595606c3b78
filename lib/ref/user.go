// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// UserID is a fully-qualified Matrix user ID ("@alice:example.org").
type UserID struct {
	id string
}

// ParseUserID validates raw as "@localpart:server".
func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return UserID{}, fmt.Errorf("empty user ID")
	}
	if raw[0] != '@' {
		return UserID{}, fmt.Errorf("user ID must start with '@': %q", raw)
	}
	localpart, server, found := strings.Cut(raw[1:], ":")
	if !found {
		return UserID{}, fmt.Errorf("user ID missing ':server' suffix: %q", raw)
	}
	if localpart == "" {
		return UserID{}, fmt.Errorf("user ID has empty localpart: %q", raw)
	}
	if server == "" {
		return UserID{}, fmt.Errorf("user ID has empty server name: %q", raw)
	}
	return UserID{id: raw}, nil
}

// QualifyUserID turns a login username into a user ID. A username that
// already starts with '@' is parsed as-is and domain is ignored.
// Otherwise domain is required and the result is "@username:domain".
func QualifyUserID(username, domain string) (UserID, error) {
	if strings.HasPrefix(username, "@") {
		return ParseUserID(username)
	}
	if domain == "" {
		return UserID{}, fmt.Errorf("username %q is not a full user ID and no user domain is configured", username)
	}
	return ParseUserID("@" + username + ":" + domain)
}

// MustParseUserID is ParseUserID that panics on error. For tests.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return userID
}

// String returns the user ID.
func (u UserID) String() string { return u.id }

// IsZero reports whether u is the zero value.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and the first ':'.
func (u UserID) Localpart() string {
	if u.id == "" {
		return ""
	}
	localpart, _, _ := strings.Cut(u.id[1:], ":")
	return localpart
}

// Server returns the server name after the first ':'.
func (u UserID) Server() string {
	_, server, _ := strings.Cut(u.id, ":")
	return server
}

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

// UnmarshalText validates data. Empty input yields the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
