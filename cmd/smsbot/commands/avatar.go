// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
)

type avatarParams struct {
	globalFlags
	image string
}

func avatarCommand(env *Environment) *cli.Command {
	var params avatarParams

	return &cli.Command{
		Name:    "avatar",
		Summary: "Set the bot's profile image",
		Description: `Upload an image to the homeserver's media repository and make it the
bot's avatar. The content type comes from the file extension, then from
the file's contents, and defaults to image/jpeg.`,
		Usage: "smsbot avatar --image PATH [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("avatar", pflag.ContinueOnError)
			params.globalFlags.register(flagSet)
			flagSet.StringVar(&params.image, "image", "", "image file (required)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.image == "" {
				return cli.Validation("--image is required")
			}

			session, err := env.openSession(&params.globalFlags, "avatar")
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.bot.Login(ctx); err != nil {
				return cli.Wrap(err, "login")
			}
			return cli.Wrap(session.bot.UpdateProfileImage(ctx, env.resolve(params.image)), "update avatar")
		},
	}
}
