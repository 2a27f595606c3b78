// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil bounds HTTP response reads from the homeserver.
package netutil

import "io"

// MaxResponseSize caps how much of a homeserver response body is read.
// Client-server API responses are a few hundred bytes; the cap only
// guards against a misbehaving server streaming forever.
const MaxResponseSize int64 = 8 << 20

// ReadResponse reads body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
