// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package tokenstore caches a Matrix access token on disk between runs.
//
// A Store owns one file. Save writes the token with its creation time
// and an absolute expiry (the server-provided lifetime, or
// DefaultLifetime when the server gives none). Load returns the token
// only while its expiry is in the future; an expired file is deleted,
// and a file that cannot be read or parsed is reported as ErrCorrupt.
// Either way the caller falls back to a fresh login, so a damaged cache
// costs one extra login request and never blocks the bot.
//
// The file is JSON:
//
//	{"access_token": "syt_...", "created_at": 1767225600, "expires_at": 1767312000}
//
// Timestamps are unix seconds. Fractional values are accepted on read.
// When the Store is configured with a sealed.Identity the same JSON is
// stored age-encrypted and ASCII-armored.
//
// The file is not locked. Two processes logging in as the same user
// each write their own token and the last write wins; both tokens stay
// valid on the homeserver, so the loser only pays an extra login next
// time.
package tokenstore
