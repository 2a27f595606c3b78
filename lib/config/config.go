// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable naming the YAML config file.
const ConfigFileVariable = "SMSBOT_CONFIG"

// Config is the complete smsbot configuration.
type Config struct {
	// Homeserver is the base URL of the Matrix homeserver.
	Homeserver string `yaml:"homeserver"`

	// Username is the login name, either a bare localpart ("smsbot")
	// or a full user ID ("@smsbot:example.org").
	Username string `yaml:"username"`

	// Password is the login password. Prefer PasswordFile; a password
	// in the YAML file or environment is readable by anyone who can
	// read those.
	Password string `yaml:"password"`

	// PasswordFile is a file holding the password.
	PasswordFile string `yaml:"password_file"`

	// UserDomain qualifies a bare Username into a user ID. Required
	// when Username does not start with '@'.
	UserDomain string `yaml:"user_domain"`

	// RoomID is the default room for send.
	RoomID string `yaml:"room_id"`

	// TokenFile is where the access token is cached. Empty means
	// ".token_<username>.json" in the working directory.
	TokenFile string `yaml:"token_file"`

	// TokenKeyFile is an age identity file. When set, the token file
	// is encrypted with it.
	TokenKeyFile string `yaml:"token_key_file"`

	// RequestTimeout bounds each HTTP request to the homeserver.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RedactReason is sent with every redaction.
	RedactReason string `yaml:"redact_reason"`
}

// Default returns a Config with defaults for the optional fields.
func Default() *Config {
	return &Config{
		RequestTimeout: 30 * time.Second,
		RedactReason:   "Message deleted automatically",
	}
}

// Options selects the configuration sources for Load.
type Options struct {
	// File is the YAML config file. Empty falls back to the
	// SMSBOT_CONFIG variable, then to no file.
	File string

	// EnvFile is a dotenv file. Empty searches for ".env" upward from
	// SearchFrom. A named file must exist; a searched one is optional.
	EnvFile string

	// SearchFrom is where the .env search starts. Empty disables the
	// search.
	SearchFrom string

	// Lookup reads environment variables. Nil means no environment.
	Lookup func(key string) (string, bool)
}

// Load builds a Config from the sources in options. It does not
// validate; call Validate after applying flag overrides.
func Load(options Options) (*Config, error) {
	lookup := options.Lookup
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	config := Default()

	file := options.File
	if file == "" {
		file, _ = lookup(ConfigFileVariable)
	}
	if file != "" {
		if err := config.loadFile(file); err != nil {
			return nil, err
		}
	}

	envFile := options.EnvFile
	if envFile == "" && options.SearchFrom != "" {
		envFile, _ = FindEnvFile(options.SearchFrom)
	}
	if envFile != "" {
		values, err := readEnvFile(envFile)
		if err != nil {
			return nil, err
		}
		config.applyVariables(func(key string) (string, bool) {
			value, ok := values[key]
			return value, ok
		})
	}

	config.applyVariables(lookup)
	config.expandPaths(lookup)
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func readEnvFile(path string) (gotenv.Env, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening env file: %w", err)
	}
	defer file.Close()

	values, err := gotenv.StrictParse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing env file %s: %w", path, err)
	}
	return values, nil
}

// FindEnvFile looks for ".env" in start and each of its parents.
func FindEnvFile(start string) (string, bool) {
	directory, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(directory, ".env")
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(directory)
		if parent == directory {
			return "", false
		}
		directory = parent
	}
}

// applyVariables copies every MATRIX_* variable that lookup defines
// over the current value. A variable set to the empty string counts as
// defined and clears the field. A password source set by this layer
// replaces the other password source from lower layers.
func (c *Config) applyVariables(lookup func(string) (string, bool)) {
	password, passwordSet := lookup("MATRIX_PASSWORD")
	passwordFile, passwordFileSet := lookup("MATRIX_PASSWORD_FILE")
	c.replacePasswordSource(
		passwordSet && password != "" && !passwordFileSet,
		passwordFileSet && passwordFile != "" && !passwordSet,
	)

	fields := []struct {
		key    string
		target *string
	}{
		{"MATRIX_SERVER", &c.Homeserver},
		{"MATRIX_USERNAME", &c.Username},
		{"MATRIX_PASSWORD", &c.Password},
		{"MATRIX_PASSWORD_FILE", &c.PasswordFile},
		{"MATRIX_USER_DOMAIN", &c.UserDomain},
		{"MATRIX_ROOM_ID", &c.RoomID},
		{"MATRIX_TOKEN_FILE", &c.TokenFile},
		{"MATRIX_TOKEN_KEY_FILE", &c.TokenKeyFile},
	}
	for _, field := range fields {
		if value, ok := lookup(field.key); ok {
			*field.target = value
		}
	}
}

// expandPaths expands ~ and $VARIABLE references in the file paths.
func (c *Config) expandPaths(lookup func(string) (string, bool)) {
	expand := func(path string) string {
		if path == "" {
			return path
		}
		path = os.Expand(path, func(key string) string {
			value, _ := lookup(key)
			return value
		})
		if path == "~" || strings.HasPrefix(path, "~/") {
			if home, ok := lookup("HOME"); ok && home != "" {
				path = filepath.Join(home, strings.TrimPrefix(path, "~"))
			}
		}
		return path
	}
	c.PasswordFile = expand(c.PasswordFile)
	c.TokenFile = expand(c.TokenFile)
	c.TokenKeyFile = expand(c.TokenKeyFile)
}

// ApplyOverrides overwrites fields of c with the non-zero fields of overrides.
// The CLI builds overrides from the flags the user actually set. An
// override naming one password source drops the other.
func (c *Config) ApplyOverrides(overrides Config) {
	mergeString := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	c.replacePasswordSource(
		overrides.Password != "" && overrides.PasswordFile == "",
		overrides.PasswordFile != "" && overrides.Password == "",
	)
	mergeString(&c.Homeserver, overrides.Homeserver)
	mergeString(&c.Username, overrides.Username)
	mergeString(&c.Password, overrides.Password)
	mergeString(&c.PasswordFile, overrides.PasswordFile)
	mergeString(&c.UserDomain, overrides.UserDomain)
	mergeString(&c.RoomID, overrides.RoomID)
	mergeString(&c.TokenFile, overrides.TokenFile)
	mergeString(&c.TokenKeyFile, overrides.TokenKeyFile)
	mergeString(&c.RedactReason, overrides.RedactReason)
	if overrides.RequestTimeout > 0 {
		c.RequestTimeout = overrides.RequestTimeout
	}
}

// replacePasswordSource clears the password source a higher layer is
// about to supersede. Password and PasswordFile are one setting, so a
// layer naming only one of them discards the other.
func (c *Config) replacePasswordSource(passwordWins, passwordFileWins bool) {
	if passwordWins {
		c.PasswordFile = ""
	}
	if passwordFileWins {
		c.Password = ""
	}
}

// Validate checks the fields every command needs. The password is not
// checked here because the CLI can prompt for it.
func (c *Config) Validate() error {
	var errs []error

	if c.Homeserver == "" {
		errs = append(errs, fmt.Errorf("homeserver is required (MATRIX_SERVER or --server)"))
	} else if parsed, err := url.Parse(c.Homeserver); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("homeserver %q is not an absolute URL", c.Homeserver))
	}

	if c.Username == "" {
		errs = append(errs, fmt.Errorf("username is required (MATRIX_USERNAME or --username)"))
	} else if !strings.HasPrefix(c.Username, "@") && c.UserDomain == "" {
		errs = append(errs, fmt.Errorf("user_domain is required when username %q is not a full user ID (MATRIX_USER_DOMAIN or --user-domain)", c.Username))
	}

	if c.Password != "" && c.PasswordFile != "" {
		errs = append(errs, fmt.Errorf("password and password_file are mutually exclusive"))
	}

	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// LogValue keeps the password out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("homeserver", c.Homeserver),
		slog.String("username", c.Username),
		slog.String("user_domain", c.UserDomain),
		slog.String("room_id", c.RoomID),
		slog.String("token_file", c.TokenFile),
		slog.Bool("token_sealed", c.TokenKeyFile != ""),
		slog.Bool("password_set", c.Password != "" || c.PasswordFile != ""),
	)
}
