// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/sealed"
)

func keygenCommand(env *Environment) *cli.Command {
	var output string

	return &cli.Command{
		Name:    "keygen",
		Summary: "Create a key for encrypting the token cache",
		Description: `Generate an age X25519 identity and write it to --output with mode 0600.
Point MATRIX_TOKEN_KEY_FILE (or --token-key-file) at it to keep the
token cache encrypted at rest. An existing file is never overwritten.

The public recipient is printed on stdout.`,
		Usage: "smsbot keygen --output PATH",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "identity file to create (required)")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if output == "" {
				return cli.Validation("--output is required")
			}

			identity, err := sealed.GenerateIdentity()
			if err != nil {
				return cli.Internal("generating identity: %w", err)
			}
			defer identity.Close()

			path := env.resolve(output)
			if err := sealed.WriteIdentityFile(path, identity); err != nil {
				if errors.Is(err, os.ErrExist) {
					return cli.Validation("%s already exists", path)
				}
				return cli.Internal("writing identity: %w", err)
			}
			fmt.Fprintln(env.Stdout, identity.Recipient())
			return nil
		},
	}
}
