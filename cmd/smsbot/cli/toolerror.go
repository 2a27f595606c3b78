// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/smsbot-matrix/smsbot/bot"
	"github.com/smsbot-matrix/smsbot/messaging"
)

// ErrorCategory classifies command errors so that scripts driving the
// CLI can decide whether to fix input, retry or escalate without parsing
// message text.
type ErrorCategory string

const (
	// CategoryValidation: bad flags, missing configuration, malformed IDs.
	// Fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryForbidden: the homeserver refused the credentials or the
	// operation.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryNotFound: the room, event or file does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryTransient: network errors, timeouts, rate limits and 5xx
	// responses. Retrying later may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands. It wraps the
// underlying error, so errors.Is and errors.As see the full chain.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may succeed on retry.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Wrap prefixes err with action and attaches the category CategoryOf
// derives for it. A nil err returns nil.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}
	return &ToolError{Category: CategoryOf(err), Err: fmt.Errorf("%s: %w", action, err)}
}

// CategoryOf classifies err. An existing ToolError keeps its category;
// Matrix errors are classified by HTTP status.
func CategoryOf(err error) ErrorCategory {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Category
	}
	if errors.Is(err, bot.ErrConfig) {
		return CategoryValidation
	}

	var matrixErr *messaging.MatrixError
	if errors.As(err, &matrixErr) {
		switch {
		case matrixErr.StatusCode == http.StatusUnauthorized, matrixErr.StatusCode == http.StatusForbidden:
			return CategoryForbidden
		case matrixErr.StatusCode == http.StatusNotFound:
			return CategoryNotFound
		case matrixErr.StatusCode == http.StatusTooManyRequests, matrixErr.StatusCode >= 500:
			return CategoryTransient
		case matrixErr.StatusCode >= 400:
			return CategoryValidation
		}
		return CategoryInternal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryTransient
	}
	return CategoryInternal
}
