// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smsbot-matrix/smsbot/lib/ref"
	"github.com/smsbot-matrix/smsbot/lib/secret"
	"github.com/smsbot-matrix/smsbot/lib/tokenstore"
	"github.com/smsbot-matrix/smsbot/messaging"
)

// DefaultRedactReason is sent with redactions when Config.RedactReason
// is empty.
const DefaultRedactReason = "Message deleted automatically"

// silentDeleteBody replaces a message's text before it is redacted.
const silentDeleteBody = " "

var (
	// ErrConfig wraps every error from New.
	ErrConfig = errors.New("bot: invalid configuration")

	// ErrNotLoggedIn is returned by operations called before Login.
	ErrNotLoggedIn = errors.New("bot: not logged in")
)

// Config configures a Bot.
type Config struct {
	// Homeserver is the homeserver base URL. Required.
	Homeserver string

	// Username is a bare localpart or a full user ID. Required.
	Username string

	// Password is used when no cached token is available. Required.
	// New takes ownership: Close releases it.
	Password *secret.Buffer

	// UserDomain qualifies a bare Username. Required when Username does
	// not start with '@'.
	UserDomain string

	// Store caches the access token between runs. Nil disables caching.
	Store *tokenstore.Store

	// HTTPClient carries all requests. Nil means http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives progress and warnings. Nil means slog.Default().
	Logger *slog.Logger

	// RedactReason is sent with every redaction. Empty means
	// DefaultRedactReason.
	RedactReason string

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// Bot is a logged-in (or about to be) Matrix account.
type Bot struct {
	client       *messaging.Client
	username     string
	userID       ref.UserID
	password     *secret.Buffer
	store        *tokenstore.Store
	logger       *slog.Logger
	redactReason string

	session *messaging.DirectSession
}

// New validates config and returns a Bot that has not logged in yet.
// No request is made.
func New(config Config) (*Bot, error) {
	if config.Homeserver == "" {
		return nil, fmt.Errorf("%w: homeserver is required", ErrConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrConfig)
	}
	if config.Password == nil {
		return nil, fmt.Errorf("%w: password is required", ErrConfig)
	}

	userID, err := ref.QualifyUserID(config.Username, config.UserDomain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("user_id", userID.String())

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: config.Homeserver,
		HTTPClient:    config.HTTPClient,
		Logger:        logger,
		UserAgent:     config.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	redactReason := config.RedactReason
	if redactReason == "" {
		redactReason = DefaultRedactReason
	}

	return &Bot{
		client:       client,
		username:     config.Username,
		userID:       userID,
		password:     config.Password,
		store:        config.Store,
		logger:       logger,
		redactReason: redactReason,
	}, nil
}

// UserID returns the account's user ID. Before Login this is the ID
// derived from the configured username; afterwards it is the ID the
// homeserver reported.
func (b *Bot) UserID() ref.UserID {
	return b.userID
}

// LoggedIn reports whether Login has succeeded.
func (b *Bot) LoggedIn() bool {
	return b.session != nil
}

// Login makes the Bot usable. A valid cached token is used as-is
// without contacting the homeserver. Otherwise Login posts the password
// and caches the new token; a failure to cache is logged and does not
// fail the login. Calling Login again after success is a no-op.
func (b *Bot) Login(ctx context.Context) error {
	if b.session != nil {
		return nil
	}

	if b.store != nil {
		token, err := b.store.Load()
		if err != nil {
			b.logger.Warn("ignoring cached token", "path", b.store.Path(), "error", err)
		}
		if token != nil {
			session, err := b.client.SessionFromToken(b.userID, token.AccessToken)
			if err != nil {
				return fmt.Errorf("bot: restoring cached session: %w", err)
			}
			b.session = session
			b.logger.Info("using cached access token", "expires_at", token.ExpiresAt)
			return nil
		}
	}

	session, expiresIn, err := b.client.Login(ctx, b.username, b.password)
	if err != nil {
		return fmt.Errorf("bot: login as %s: %w", b.userID, err)
	}
	b.session = session
	if !session.UserID().IsZero() {
		b.userID = session.UserID()
	}

	if b.store != nil {
		if _, err := b.store.Save(session.AccessToken(), expiresIn); err != nil {
			b.logger.Warn("could not cache access token", "path", b.store.Path(), "error", err)
		}
	}
	return nil
}

// Logout invalidates the access token on the homeserver and removes the
// cached token. The cache is removed even if the server call fails; the
// server error is still returned.
func (b *Bot) Logout(ctx context.Context) error {
	if b.session == nil {
		return ErrNotLoggedIn
	}

	logoutErr := b.session.Logout(ctx)
	if logoutErr != nil {
		logoutErr = fmt.Errorf("bot: %w", logoutErr)
	}

	var removeErr error
	if b.store != nil {
		if err := b.store.Remove(); err != nil {
			removeErr = fmt.Errorf("bot: removing cached token: %w", err)
		}
	}

	b.session.Close()
	b.session = nil
	b.logger.Info("logged out")
	return errors.Join(logoutErr, removeErr)
}

// JoinRoom joins roomID. Joining a room the account is already in
// succeeds.
func (b *Bot) JoinRoom(ctx context.Context, roomID ref.RoomID) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if roomID.IsZero() {
		return fmt.Errorf("bot: room ID is required")
	}
	if _, err := b.session.JoinRoom(ctx, roomID); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("joined room", "room_id", roomID.String())
	return nil
}

// SendMessage sends text to roomID as an m.text message.
func (b *Bot) SendMessage(ctx context.Context, roomID ref.RoomID, text string) (ref.EventID, error) {
	if err := b.requireSession(); err != nil {
		return ref.EventID{}, err
	}
	if roomID.IsZero() {
		return ref.EventID{}, fmt.Errorf("bot: room ID is required")
	}
	eventID, err := b.session.SendMessage(ctx, roomID, messaging.NewTextMessage(text))
	if err != nil {
		return ref.EventID{}, fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("sent message", "room_id", roomID.String(), "event_id", eventID.String())
	return eventID, nil
}

// SendMessageToRoom joins roomID and sends text. A failed join is
// logged and the send is attempted anyway, since the account may
// already be a member.
func (b *Bot) SendMessageToRoom(ctx context.Context, roomID ref.RoomID, text string) (ref.EventID, error) {
	if err := b.requireSession(); err != nil {
		return ref.EventID{}, err
	}
	if err := b.JoinRoom(ctx, roomID); err != nil {
		b.logger.Warn("join failed, sending anyway", "room_id", roomID.String(), "error", err)
	}
	return b.SendMessage(ctx, roomID, text)
}

// EditMessage replaces the text of eventID with text.
func (b *Bot) EditMessage(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, text string) error {
	if err := b.requireTarget(roomID, eventID); err != nil {
		return err
	}
	if _, err := b.session.EditMessage(ctx, roomID, eventID, text); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("edited message", "room_id", roomID.String(), "event_id", eventID.String())
	return nil
}

// DeleteMessage redacts eventID with the configured reason.
func (b *Bot) DeleteMessage(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) error {
	if err := b.requireTarget(roomID, eventID); err != nil {
		return err
	}
	if _, err := b.session.RedactEvent(ctx, roomID, eventID, b.redactReason); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	b.logger.Info("deleted message", "room_id", roomID.String(), "event_id", eventID.String())
	return nil
}

// SilentDelete blanks eventID with an edit and then redacts it, so
// clients that keep edit history show nothing useful. An edit failure
// is logged and does not stop the redaction; the result is the
// redaction's.
func (b *Bot) SilentDelete(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) error {
	if err := b.requireTarget(roomID, eventID); err != nil {
		return err
	}
	if err := b.EditMessage(ctx, roomID, eventID, silentDeleteBody); err != nil {
		b.logger.Warn("blanking message before delete failed",
			"room_id", roomID.String(),
			"event_id", eventID.String(),
			"error", err,
		)
	}
	return b.DeleteMessage(ctx, roomID, eventID)
}

// Close releases the session token and the password. The Bot is
// unusable afterwards. Close does not log out.
func (b *Bot) Close() error {
	var errs []error
	if b.session != nil {
		errs = append(errs, b.session.Close())
		b.session = nil
	}
	if b.password != nil {
		errs = append(errs, b.password.Close())
		b.password = nil
	}
	return errors.Join(errs...)
}

func (b *Bot) requireSession() error {
	if b.session == nil {
		return ErrNotLoggedIn
	}
	return nil
}

func (b *Bot) requireTarget(roomID ref.RoomID, eventID ref.EventID) error {
	if err := b.requireSession(); err != nil {
		return err
	}
	if roomID.IsZero() {
		return fmt.Errorf("bot: room ID is required")
	}
	if eventID.IsZero() {
		return fmt.Errorf("bot: event ID is required")
	}
	return nil
}
