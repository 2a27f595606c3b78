// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated Matrix identifier types.
//
// UserID, RoomID and EventID are immutable value types that can only be
// built through their Parse functions, so an invalid identifier is
// rejected at the boundary (flag parsing, config loading, JSON decoding)
// instead of surfacing as an M_INVALID_PARAM from the homeserver. All
// three implement encoding.TextMarshaler and encoding.TextUnmarshaler.
package ref
