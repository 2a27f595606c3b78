// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credentials (the account password, the access
// token, the age identity that seals the token file) outside the Go
// heap.
//
// A Buffer is an anonymous mmap region that is mlock'ed against swap and
// marked MADV_DONTDUMP. Close zeroes and unmaps it. Values are copied
// out as strings only at the JSON or header boundary where an API needs
// them.
package secret
