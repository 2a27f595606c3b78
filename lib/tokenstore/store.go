// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smsbot-matrix/smsbot/lib/clock"
	"github.com/smsbot-matrix/smsbot/lib/sealed"
	"github.com/smsbot-matrix/smsbot/lib/secret"
)

// DefaultLifetime is how long a token is trusted when the homeserver
// does not report an expiry.
const DefaultLifetime = 24 * time.Hour

// ErrCorrupt reports a token file that exists but cannot be used.
var ErrCorrupt = errors.New("tokenstore: corrupt token file")

// Token is a cached access token.
type Token struct {
	AccessToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Valid reports whether the token can be used at now.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && t.ExpiresAt.After(now)
}

// artifact is the on-disk JSON layout.
type artifact struct {
	AccessToken string  `json:"access_token"`
	CreatedAt   float64 `json:"created_at"`
	ExpiresAt   float64 `json:"expires_at,omitempty"`
}

// Config configures a Store.
type Config struct {
	// Path is the token file. Required.
	Path string

	// Clock supplies the current time. Nil means clock.Real().
	Clock clock.Clock

	// Logger receives debug and warning messages. Nil means
	// slog.Default().
	Logger *slog.Logger

	// Identity, when set, seals the file with age. The Store borrows
	// the identity; the caller closes it.
	Identity *sealed.Identity
}

// Store persists one token file.
type Store struct {
	path     string
	clock    clock.Clock
	logger   *slog.Logger
	identity *sealed.Identity
}

// New creates a Store. The file is not touched until Load or Save.
func New(config Config) (*Store, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("tokenstore: Path is required")
	}
	storeClock := config.Clock
	if storeClock == nil {
		storeClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:     config.Path,
		clock:    storeClock,
		logger:   logger,
		identity: config.Identity,
	}, nil
}

// DefaultPath returns the conventional token file for username inside
// directory: ".token_<username>.json". Path separators in the username
// are replaced so the file always lands directly in directory.
func DefaultPath(directory, username string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, username)
	return filepath.Join(directory, ".token_"+safe+".json")
}

// Path returns the token file path.
func (s *Store) Path() string { return s.path }

// Load returns the cached token, or nil when there is none.
//
// A missing file returns (nil, nil). An expired token, or one with no
// expiry, is deleted and also returns (nil, nil) unless the delete
// fails. A file that cannot be read, decrypted or parsed returns
// (nil, err) with errors.Is(err, ErrCorrupt). The returned error never
// means a usable token exists.
func (s *Store) Load() (*Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, s.path, err)
	}
	defer secret.Zero(data)

	if s.identity != nil {
		opened, err := s.identity.Open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
		}
		defer secret.Zero(opened)
		data = opened
	}

	var stored artifact
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, s.path, err)
	}
	if stored.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s has no access_token", ErrCorrupt, s.path)
	}

	token := &Token{
		AccessToken: stored.AccessToken,
		CreatedAt:   fromUnixSeconds(stored.CreatedAt),
	}
	if stored.ExpiresAt > 0 {
		token.ExpiresAt = fromUnixSeconds(stored.ExpiresAt)
	}

	now := s.clock.Now()
	if !token.Valid(now) {
		s.logger.Info("cached token expired, removing",
			"path", s.path,
			"expires_at", token.ExpiresAt,
		)
		if err := s.Remove(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	s.logger.Debug("loaded cached token",
		"path", s.path,
		"expires_at", token.ExpiresAt,
	)
	return token, nil
}

// Save writes accessToken with an expiry of now+expiresIn, replacing
// any existing file. expiresIn <= 0 means DefaultLifetime. The parent
// directory is created with mode 0700 and the file is written 0600.
func (s *Store) Save(accessToken string, expiresIn time.Duration) (*Token, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("tokenstore: refusing to save an empty access token")
	}
	if expiresIn <= 0 {
		expiresIn = DefaultLifetime
	}

	now := s.clock.Now()
	token := &Token{
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(expiresIn),
	}

	data, err := json.Marshal(artifact{
		AccessToken: token.AccessToken,
		CreatedAt:   toUnixSeconds(token.CreatedAt),
		ExpiresAt:   toUnixSeconds(token.ExpiresAt),
	})
	if err != nil {
		return nil, fmt.Errorf("tokenstore: encoding token: %w", err)
	}
	defer secret.Zero(data)

	if s.identity != nil {
		data, err = s.identity.Seal(data)
		if err != nil {
			return nil, fmt.Errorf("tokenstore: sealing token: %w", err)
		}
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, fmt.Errorf("tokenstore: creating %s: %w", directory, err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return nil, fmt.Errorf("tokenstore: writing %s: %w", s.path, err)
	}

	s.logger.Debug("saved token",
		"path", s.path,
		"expires_at", token.ExpiresAt,
		"sealed", s.identity != nil,
	)
	return token, nil
}

// Remove deletes the token file. A missing file is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: removing %s: %w", s.path, err)
	}
	return nil
}

func toUnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnixSeconds(seconds float64) time.Time {
	whole, fraction := math.Modf(seconds)
	return time.Unix(int64(whole), int64(fraction*float64(time.Second)))
}
