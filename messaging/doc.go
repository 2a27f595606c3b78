// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a small wrapper around the Matrix client-server
// API, covering the endpoints smsbot needs: password login, joining a
// room, sending and editing text messages, redaction, media upload and
// the profile avatar.
//
// [Client] is unauthenticated and holds the homeserver URL and HTTP
// transport. [Client.Login] and [Client.SessionFromToken] return a
// [DirectSession] that carries the access token in a [secret.Buffer].
// Callers must Close the session when done.
//
// Only HTTP 200 counts as success. Every other status is returned as a
// *[MatrixError] carrying the status code, the errcode from the body and
// the raw body itself. Nothing is retried.
//
// All requests take a context.Context; the caller controls timeouts
// through it or through the *http.Client in [ClientConfig].
package messaging
