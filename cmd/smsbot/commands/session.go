// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/smsbot-matrix/smsbot/bot"
	"github.com/smsbot-matrix/smsbot/cmd/smsbot/cli"
	"github.com/smsbot-matrix/smsbot/lib/clock"
	"github.com/smsbot-matrix/smsbot/lib/config"
	"github.com/smsbot-matrix/smsbot/lib/ref"
	"github.com/smsbot-matrix/smsbot/lib/sealed"
	"github.com/smsbot-matrix/smsbot/lib/secret"
	"github.com/smsbot-matrix/smsbot/lib/tokenstore"
	"github.com/smsbot-matrix/smsbot/lib/version"
	"github.com/smsbot-matrix/smsbot/messaging"
)

// globalFlags are accepted by every command that talks to the homeserver.
type globalFlags struct {
	configFile   string
	envFile      string
	server       string
	username     string
	passwordFile string
	userDomain   string
	tokenFile    string
	tokenKeyFile string
	verbose      bool
}

func (g *globalFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.configFile, "config", "", "YAML config file (default $SMSBOT_CONFIG)")
	flagSet.StringVar(&g.envFile, "env-file", "", "dotenv file with MATRIX_* variables (default: nearest .env)")
	flagSet.StringVar(&g.server, "server", "", "homeserver URL (MATRIX_SERVER)")
	flagSet.StringVar(&g.username, "username", "", "bot username or user ID (MATRIX_USERNAME)")
	flagSet.StringVar(&g.passwordFile, "password-file", "", "file holding the password (MATRIX_PASSWORD_FILE)")
	flagSet.StringVar(&g.userDomain, "user-domain", "", "server name for a bare username (MATRIX_USER_DOMAIN)")
	flagSet.StringVar(&g.tokenFile, "token-file", "", "access token cache (default .token_<username>.json)")
	flagSet.StringVar(&g.tokenKeyFile, "token-key-file", "", "age identity that encrypts the token cache (MATRIX_TOKEN_KEY_FILE)")
	flagSet.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output")
}

// loadConfig merges the configuration sources with g's overrides and
// validates the result.
func (env *Environment) loadConfig(g *globalFlags) (*config.Config, error) {
	loaded, err := config.Load(config.Options{
		File:       env.resolve(g.configFile),
		EnvFile:    env.resolve(g.envFile),
		SearchFrom: env.WorkingDirectory,
		Lookup:     env.Lookup,
	})
	if err != nil {
		return nil, cli.Validation("loading configuration: %w", err)
	}
	loaded.ApplyOverrides(config.Config{
		Homeserver:   g.server,
		Username:     g.username,
		PasswordFile: g.passwordFile,
		UserDomain:   g.userDomain,
		TokenFile:    g.tokenFile,
		TokenKeyFile: g.tokenKeyFile,
	})
	if err := loaded.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return loaded, nil
}

// resolve makes a relative path relative to the working directory.
func (env *Environment) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || env.WorkingDirectory == "" {
		return path
	}
	return filepath.Join(env.WorkingDirectory, path)
}

func (env *Environment) clock() clock.Clock {
	if env.Clock != nil {
		return env.Clock
	}
	return clock.Real()
}

func (env *Environment) logger(g *globalFlags) *slog.Logger {
	if env.Logger != nil {
		return env.Logger
	}
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return cli.NewCommandLogger(env.Stderr, level)
}

// commandSession is everything a homeserver command needs, built from
// the configuration. Close releases it.
type commandSession struct {
	config   *config.Config
	logger   *slog.Logger
	store    *tokenstore.Store
	identity *sealed.Identity
	bot      *bot.Bot
}

// openStore loads the configuration and opens the token store without
// reading any password.
func (env *Environment) openStore(g *globalFlags, command string) (*commandSession, error) {
	loaded, err := env.loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger := env.logger(g).With("command", command)
	logger.Debug("configuration loaded", "config", loaded)

	session := &commandSession{config: loaded, logger: logger}

	if loaded.TokenKeyFile != "" {
		identity, err := sealed.LoadIdentityFile(env.resolve(loaded.TokenKeyFile))
		if err != nil {
			return nil, cli.Validation("loading token key: %w", err)
		}
		session.identity = identity
	}

	tokenPath := env.resolve(loaded.TokenFile)
	if tokenPath == "" {
		tokenPath = tokenstore.DefaultPath(env.WorkingDirectory, loaded.Username)
	}
	store, err := tokenstore.New(tokenstore.Config{
		Path:     tokenPath,
		Clock:    env.clock(),
		Logger:   logger,
		Identity: session.identity,
	})
	if err != nil {
		session.Close()
		return nil, cli.Internal("opening token store: %w", err)
	}
	session.store = store
	return session, nil
}

// openSession is openStore plus a Bot, which needs the password.
func (env *Environment) openSession(g *globalFlags, command string) (*commandSession, error) {
	session, err := env.openStore(g, command)
	if err != nil {
		return nil, err
	}

	password, err := env.password(session.config)
	if err != nil {
		session.Close()
		return nil, err
	}

	session.bot, err = bot.New(bot.Config{
		Homeserver:   session.config.Homeserver,
		Username:     session.config.Username,
		Password:     password,
		UserDomain:   session.config.UserDomain,
		Store:        session.store,
		HTTPClient:   env.httpClient(session.config),
		Logger:       session.logger,
		RedactReason: session.config.RedactReason,
		UserAgent:    version.UserAgent(),
	})
	if err != nil {
		password.Close()
		session.Close()
		return nil, cli.Wrap(err, "configuring bot")
	}
	return session, nil
}

// matrixClient builds a bare Matrix client for commands that work from
// the cached token alone and so need no password.
func (env *Environment) matrixClient(session *commandSession) (*messaging.Client, error) {
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: session.config.Homeserver,
		HTTPClient:    env.httpClient(session.config),
		Logger:        session.logger,
		UserAgent:     version.UserAgent(),
	})
	if err != nil {
		return nil, cli.Validation("configuring client: %w", err)
	}
	return client, nil
}

func (env *Environment) httpClient(loaded *config.Config) *http.Client {
	if env.HTTPClient != nil {
		return env.HTTPClient
	}
	return &http.Client{Timeout: loaded.RequestTimeout}
}

// password returns the configured password, prompting on the terminal
// when none is configured.
func (env *Environment) password(loaded *config.Config) (*secret.Buffer, error) {
	switch {
	case loaded.Password != "":
		buffer, err := secret.NewFromString(loaded.Password)
		if err != nil {
			return nil, cli.Internal("protecting password: %w", err)
		}
		return buffer, nil
	case loaded.PasswordFile != "":
		buffer, err := secret.ReadFile(env.resolve(loaded.PasswordFile))
		if err != nil {
			return nil, cli.Validation("reading password file: %w", err)
		}
		return buffer, nil
	}
	if env.Stdin == nil {
		return nil, cli.Validation("no password configured (set MATRIX_PASSWORD_FILE or --password-file)")
	}
	return cli.PromptPassword(env.Stdin, env.Stderr)
}

// roomID parses flagValue, falling back to the configured room.
func (s *commandSession) roomID(flagValue string) (ref.RoomID, error) {
	raw := flagValue
	if raw == "" {
		raw = s.config.RoomID
	}
	if raw == "" {
		return ref.RoomID{}, cli.Validation("no room given (--room or MATRIX_ROOM_ID)")
	}
	roomID, err := ref.ParseRoomID(raw)
	if err != nil {
		return ref.RoomID{}, cli.Validation("%w", err)
	}
	return roomID, nil
}

func (s *commandSession) Close() error {
	var errs []error
	if s.bot != nil {
		errs = append(errs, s.bot.Close())
	}
	if s.identity != nil {
		errs = append(errs, s.identity.Close())
	}
	return errors.Join(errs...)
}
