// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/clock"
)

type sendParams struct {
	globalFlags
	message     string
	room        string
	deleteAfter int
}

func sendCommand(env *Environment) *cli.Command {
	var params sendParams

	return &cli.Command{
		Name:    "send",
		Summary: "Send a message, optionally deleting it later",
		Description: `Join the room (a failed join is logged and ignored) and send the message
as plain text. The event ID of the message is printed on stdout.

With --delete-after N the command waits N seconds and then deletes the
message silently: its text is first replaced with a blank edit, then the
event is redacted.`,
		Usage: "smsbot send --message TEXT [--room ID] [--delete-after SECONDS] [flags]",
		Examples: []cli.Example{
			{
				Description: "Send to the room configured in MATRIX_ROOM_ID",
				Command:     `smsbot send --message "Your code is 481516"`,
			},
			{
				Description: "Send a one-time code that disappears after a minute",
				Command:     `smsbot send --room '!abc:example.org' --message "481516" --delete-after 60`,
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("send", pflag.ContinueOnError)
			params.globalFlags.register(flagSet)
			flagSet.StringVarP(&params.message, "message", "m", "", "text to send (required)")
			flagSet.StringVar(&params.room, "room", "", "room ID (default MATRIX_ROOM_ID)")
			flagSet.IntVar(&params.deleteAfter, "delete-after", 0, "delete the message after this many seconds (0 keeps it)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.message == "" {
				return cli.Validation("--message is required")
			}
			if params.deleteAfter < 0 {
				return cli.Validation("--delete-after must not be negative")
			}

			session, err := env.openSession(&params.globalFlags, "send")
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
			eventID, err := session.bot.SendMessageToRoom(ctx, roomID, params.message)
			if err != nil {
				return cli.Wrap(err, "send message")
			}
			fmt.Fprintln(env.Stdout, eventID)

			if params.deleteAfter == 0 {
				return nil
			}

			delay := time.Duration(params.deleteAfter) * time.Second
			session.logger.Info("waiting before delete",
				"room_id", roomID.String(),
				"event_id", eventID.String(),
				"delay", delay,
			)
			if err := clock.Sleep(ctx, env.clock(), delay); err != nil {
				return cli.Wrap(err, fmt.Sprintf("waiting to delete %s", eventID))
			}
			if err := session.bot.SilentDelete(ctx, roomID, eventID); err != nil {
				return cli.Wrap(err, "delete message")
			}
			return nil
		},
	}
}
