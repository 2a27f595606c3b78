// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Production code holds a Clock instead of calling time.Now or
// time.After directly. Real() is backed by the time package. Fake()
// returns a deterministic clock for tests: time only moves when the
// test calls Advance or Set, or when code under test waits on it.
//
// Every consumer in this module is sequential, so the fake does not
// park waiters. A wait on a FakeClock completes immediately and moves
// the clock forward by the requested duration, which lets a test run
// "sleep 30 seconds, then delete" without sleeping:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	store, _ := tokenstore.New(tokenstore.Config{Path: path, Clock: fake})
//	store.Save("abc", time.Minute)
//	fake.Advance(2 * time.Minute)
//	token, _ := store.Load() // nil: expired
package clock
