// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the smsbot
// binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/smsbot-matrix/smsbot/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/smsbot
//
// They default to "unknown" / "0.1.0-dev" in development builds, where
// [Info] reads the commit from the toolchain's embedded VCS stamp
// instead. [UserAgent] is the User-Agent header sent to homeservers.
package version
