// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/clock"
)

// Environment is the outside world as seen by a command.
type Environment struct {
	// Stdin is used for the password prompt.
	Stdin *os.File
	// Stdout receives command results (event IDs, user IDs, recipients).
	Stdout io.Writer
	// Stderr receives logs and help.
	Stderr io.Writer
	// Lookup reads environment variables.
	Lookup func(key string) (string, bool)
	// WorkingDirectory anchors relative paths and the .env search.
	WorkingDirectory string
	// Clock drives --delete-after. Nil means the real clock.
	Clock clock.Clock
	// HTTPClient overrides the client built from request_timeout.
	HTTPClient *http.Client
	// Logger overrides the logger built for Stderr.
	Logger *slog.Logger
}

// Root returns the smsbot command tree bound to env.
func Root(env *Environment) *cli.Command {
	return &cli.Command{
		Name:    "smsbot",
		Summary: "Post messages to a Matrix room",
		Description: `smsbot posts text messages to a Matrix room as a bot account, and can
delete them again (optionally after a delay), update the bot's avatar,
and manage the cached access token.

Configuration comes from, lowest precedence first: a YAML file
(--config or SMSBOT_CONFIG), a .env file (--env-file, or the nearest
.env above the working directory), MATRIX_* environment variables, and
command-line flags.`,
		Output: env.Stderr,
		Subcommands: []*cli.Command{
			sendCommand(env),
			deleteCommand(env),
			avatarCommand(env),
			loginCommand(env),
			logoutCommand(env),
			keygenCommand(env),
			versionCommand(env),
		},
	}
}
