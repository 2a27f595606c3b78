// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
)

func loginCommand(env *Environment) *cli.Command {
	var params globalFlags

	return &cli.Command{
		Name:    "login",
		Summary: "Log in and cache the access token",
		Description: `Log in with the configured password unless a valid token is already
cached, and write the token cache. Later commands reuse the cached token
until it expires (the server's expiry, or 24 hours).

The user ID is printed on stdout.`,
		Usage: "smsbot login [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			params.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			session, err := env.openSession(&params, "login")
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.bot.Login(ctx); err != nil {
				return cli.Wrap(err, "login")
			}
			fmt.Fprintln(env.Stdout, session.bot.UserID())
			session.logger.Info("token cache", "path", session.store.Path())
			return nil
		},
	}
}
