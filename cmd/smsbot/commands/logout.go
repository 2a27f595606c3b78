// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/ref"
)

func logoutCommand(env *Environment) *cli.Command {
	var params globalFlags

	return &cli.Command{
		Name:    "logout",
		Summary: "Invalidate the cached access token",
		Description: `Invalidate the cached access token on the homeserver and delete the
token cache. Does nothing when no valid token is cached. Only the cached
token is used, so no password is needed.`,
		Usage: "smsbot logout [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("logout", pflag.ContinueOnError)
			params.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}

			session, err := env.openStore(&params, "logout")
			if err != nil {
				return err
			}
			defer session.Close()

			token, err := session.store.Load()
			if err != nil {
				session.logger.Warn("removing unreadable token cache", "path", session.store.Path(), "error", err)
				return cli.Wrap(session.store.Remove(), "remove token cache")
			}
			if token == nil {
				session.logger.Info("no cached token, nothing to do", "path", session.store.Path())
				return nil
			}

			userID, err := ref.QualifyUserID(session.config.Username, session.config.UserDomain)
			if err != nil {
				return cli.Validation("%w", err)
			}
			client, err := env.matrixClient(session)
			if err != nil {
				return err
			}
			direct, err := client.SessionFromToken(userID, token.AccessToken)
			if err != nil {
				return cli.Internal("restoring cached session: %w", err)
			}
			defer direct.Close()

			// The cache goes even when the server refuses the token.
			logoutErr := direct.Logout(ctx)
			removeErr := session.store.Remove()
			if logoutErr == nil && removeErr == nil {
				session.logger.Info("logged out", "user_id", userID.String())
			}
			return errors.Join(cli.Wrap(logoutErr, "logout"), cli.Wrap(removeErr, "remove token cache"))
		},
	}
}
