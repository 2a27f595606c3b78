// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/ref"
)

type deleteParams struct {
	globalFlags
	room  string
	event string
	loud  bool
}

func deleteCommand(env *Environment) *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a message",
		Description: `Delete a message the bot can redact. By default the text is first
blanked with an edit so that clients keeping edit history show nothing;
--loud skips the edit and only redacts.`,
		Usage: "smsbot delete --event ID [--room ID] [--loud] [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("delete", pflag.ContinueOnError)
			params.globalFlags.register(flagSet)
			flagSet.StringVar(&params.room, "room", "", "room ID (default MATRIX_ROOM_ID)")
			flagSet.StringVar(&params.event, "event", "", "event ID of the message (required)")
			flagSet.BoolVar(&params.loud, "loud", false, "redact without blanking the text first")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.event == "" {
				return cli.Validation("--event is required")
			}
			eventID, err := ref.ParseEventID(params.event)
			if err != nil {
				return cli.Validation("%w", err)
			}

			session, err := env.openSession(&params.globalFlags, "delete")
			if err != nil {
				return err
			}
			defer session.Close()

			roomID, err := session.roomID(params.room)
			if err != nil {
				return err
			}

			if err := session.bot.Login(ctx); err != nil {
				return cli.Wrap(err, "login")
			}
			if params.loud {
				return cli.Wrap(session.bot.DeleteMessage(ctx, roomID, eventID), "delete message")
			}
			return cli.Wrap(session.bot.SilentDelete(ctx, roomID, eventID), "delete message")
		},
	}
}
