// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the smsbot binary:
// a tree of [Command] values with pflag flag sets, typo suggestions for
// unknown commands and flags, categorized errors ([ToolError]), the
// slog logger factory, and the interactive password prompt.
package cli
