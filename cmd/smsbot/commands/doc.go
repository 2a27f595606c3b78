// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the smsbot command tree. Everything a command
// touches outside the process (streams, environment variables, working
// directory, clock, HTTP transport) comes from an [Environment], so
// tests run the real commands against a fake homeserver.
package commands
