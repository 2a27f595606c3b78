// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot is smsbot's session client: one Matrix account that logs
// in (reusing a cached token when it can), joins rooms, sends, edits and
// deletes text messages, and sets its own avatar.
//
// A Bot is built from an explicit [Config]; it never reads the
// environment. Every operation other than Login fails with
// [ErrNotLoggedIn] until Login has succeeded, without contacting the
// homeserver.
//
// [Bot.SilentDelete] hides a message in two steps: an edit that blanks
// its body, then a redaction. The two requests are independent; a
// failed edit is logged and the redaction is still attempted.
//
// A Bot is not safe for concurrent use.
package bot
