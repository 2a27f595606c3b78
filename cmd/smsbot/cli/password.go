// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/smsbot-matrix/smsbot/lib/secret"
)

// PromptPassword reads a password from the terminal on stdin with echo
// disabled, writing the prompt to prompt. It fails with a validation
// error when stdin is not a terminal.
func PromptPassword(stdin *os.File, prompt io.Writer) (*secret.Buffer, error) {
	fileDescriptor := int(stdin.Fd())
	if !term.IsTerminal(fileDescriptor) {
		return nil, Validation("no password configured and no terminal to prompt on (set MATRIX_PASSWORD_FILE or --password-file)")
	}

	fmt.Fprint(prompt, "Matrix password: ")
	passwordBytes, err := term.ReadPassword(fileDescriptor)
	fmt.Fprintln(prompt)
	if err != nil {
		return nil, Internal("reading password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return nil, Validation("empty password")
	}

	buffer, err := secret.NewFromBytes(passwordBytes)
	if err != nil {
		secret.Zero(passwordBytes)
		return nil, Internal("protecting password: %w", err)
	}
	return buffer, nil
}
