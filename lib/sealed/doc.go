// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts the cached access token at rest with age.
//
// An Identity is an age X25519 keypair whose private half lives in a
// secret.Buffer. Seal encrypts to the identity's own recipient and
// ASCII-armors the result so the token file stays a text file; Open
// reverses it. Identity files use the age-keygen layout (comment lines
// followed by an AGE-SECRET-KEY-1... line), so keys produced by
// "smsbot keygen" and by the age CLI are interchangeable.
package sealed
