// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smsbot-matrix/smsbot/lib/clock"
	"github.com/smsbot-matrix/smsbot/lib/ref"
	"github.com/smsbot-matrix/smsbot/lib/secret"
	"github.com/smsbot-matrix/smsbot/lib/tokenstore"
	"github.com/smsbot-matrix/smsbot/messaging"
)

var (
	testRoom  = ref.MustParseRoomID("!room:example.org")
	testEvent = ref.MustParseEventID("$event")
	testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

// recordedRequest is one request seen by fakeHomeserver.
type recordedRequest struct {
	action        string
	method        string
	path          string
	authorization string
	contentType   string
	body          []byte
}

// fakeHomeserver answers the endpoints Bot uses. Requests are
// classified into actions ("login", "join", "send", "edit", "redact",
// "upload", "avatar", "logout") so tests can assert on order and
// inject failures per action.
type fakeHomeserver struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	requests    []recordedRequest
	failures    map[string]int
	expiresInMS int64
}

func newFakeHomeserver(t *testing.T) *fakeHomeserver {
	t.Helper()
	fake := &fakeHomeserver{t: t, failures: map[string]int{}}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)
	return fake
}

func (f *fakeHomeserver) fail(action string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[action] = status
}

func (f *fakeHomeserver) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var actions []string
	for _, request := range f.requests {
		actions = append(actions, request.action)
	}
	return actions
}

func (f *fakeHomeserver) requestsFor(action string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []recordedRequest
	for _, request := range f.requests {
		if request.action == action {
			matched = append(matched, request)
		}
	}
	return matched
}

func classify(request *http.Request, body []byte) string {
	path := request.URL.Path
	switch {
	case path == "/_matrix/client/v3/login":
		return "login"
	case path == "/_matrix/client/v3/logout":
		return "logout"
	case path == "/_matrix/media/v3/upload":
		return "upload"
	case strings.HasPrefix(path, "/_matrix/client/v3/profile/") && strings.HasSuffix(path, "/avatar_url"):
		return "avatar"
	case strings.HasSuffix(path, "/join"):
		return "join"
	case strings.Contains(path, "/redact/"):
		return "redact"
	case strings.Contains(path, "/send/m.room.message/"):
		if strings.Contains(string(body), `"m.relates_to"`) {
			return "edit"
		}
		return "send"
	}
	return "unknown"
}

func (f *fakeHomeserver) handle(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)
	action := classify(request, body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		action:        action,
		method:        request.Method,
		path:          request.URL.Path,
		authorization: request.Header.Get("Authorization"),
		contentType:   request.Header.Get("Content-Type"),
		body:          body,
	})
	status, failing := f.failures[action]
	expiresInMS := f.expiresInMS
	f.mu.Unlock()

	writer.Header().Set("Content-Type", "application/json")
	if failing {
		writer.WriteHeader(status)
		json.NewEncoder(writer).Encode(map[string]string{"errcode": "M_FORBIDDEN", "error": action + " refused"})
		return
	}

	var response any
	switch action {
	case "login":
		login := map[string]any{
			"user_id":      "@smsbot:example.org",
			"access_token": "syt_fresh",
			"device_id":    "DEVICE",
		}
		if expiresInMS > 0 {
			login["expires_in_ms"] = expiresInMS
		}
		response = login
	case "join":
		response = map[string]string{"room_id": testRoom.String()}
	case "send":
		response = map[string]string{"event_id": "$sent"}
	case "edit":
		response = map[string]string{"event_id": "$edit"}
	case "redact":
		response = map[string]string{"event_id": "$redaction"}
	case "upload":
		response = map[string]string{"content_uri": "mxc://example.org/avatar"}
	case "avatar", "logout":
		response = map[string]any{}
	default:
		f.t.Errorf("unexpected request %s %s", request.Method, request.URL.Path)
		writer.WriteHeader(http.StatusNotFound)
		return
	}
	json.NewEncoder(writer).Encode(response)
}

func testPassword(t *testing.T) *secret.Buffer {
	t.Helper()
	password, err := secret.NewFromString("hunter2")
	if err != nil {
		t.Fatalf("creating password buffer: %v", err)
	}
	return password
}

func newTestStore(t *testing.T, fakeClock *clock.FakeClock) *tokenstore.Store {
	t.Helper()
	store, err := tokenstore.New(tokenstore.Config{
		Path:  filepath.Join(t.TempDir(), ".token_smsbot.json"),
		Clock: fakeClock,
	})
	if err != nil {
		t.Fatalf("tokenstore.New: %v", err)
	}
	return store
}

func newTestBot(t *testing.T, fake *fakeHomeserver, store *tokenstore.Store) *Bot {
	t.Helper()
	bot, err := New(Config{
		Homeserver: fake.server.URL,
		Username:   "smsbot",
		UserDomain: "example.org",
		Password:   testPassword(t),
		Store:      store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { bot.Close() })
	return bot
}

func loggedInBot(t *testing.T, fake *fakeHomeserver) *Bot {
	t.Helper()
	bot := newTestBot(t, fake, nil)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return bot
}

func equalActions(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) Config
	}{
		{"missing homeserver", func(t *testing.T) Config {
			return Config{Username: "@bot:example.org", Password: testPassword(t)}
		}},
		{"missing username", func(t *testing.T) Config {
			return Config{Homeserver: "https://matrix.example.org", Password: testPassword(t)}
		}},
		{"missing password", func(t *testing.T) Config {
			return Config{Homeserver: "https://matrix.example.org", Username: "@bot:example.org"}
		}},
		{"localpart without domain", func(t *testing.T) Config {
			return Config{Homeserver: "https://matrix.example.org", Username: "bot", Password: testPassword(t)}
		}},
		{"malformed user ID", func(t *testing.T) Config {
			return Config{Homeserver: "https://matrix.example.org", Username: "@bot", Password: testPassword(t)}
		}},
		{"bad homeserver scheme", func(t *testing.T) Config {
			return Config{Homeserver: "matrix.example.org", Username: "@bot:example.org", Password: testPassword(t)}
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := test.config(t)
			if config.Password != nil {
				t.Cleanup(func() { config.Password.Close() })
			}
			_, err := New(config)
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestNewQualifiesUserID(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := newTestBot(t, fake, nil)
	if bot.UserID().String() != "@smsbot:example.org" {
		t.Errorf("UserID = %q", bot.UserID())
	}
	if bot.LoggedIn() {
		t.Error("new Bot reports logged in")
	}
}

func TestOperationsBeforeLogin(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := newTestBot(t, fake, nil)
	ctx := context.Background()

	checks := map[string]error{
		"JoinRoom": bot.JoinRoom(ctx, testRoom),
		"SendMessage": func() error {
			_, err := bot.SendMessage(ctx, testRoom, "hi")
			return err
		}(),
		"SendMessageToRoom": func() error {
			_, err := bot.SendMessageToRoom(ctx, testRoom, "hi")
			return err
		}(),
		"EditMessage":   bot.EditMessage(ctx, testRoom, testEvent, "x"),
		"DeleteMessage": bot.DeleteMessage(ctx, testRoom, testEvent),
		"SilentDelete":  bot.SilentDelete(ctx, testRoom, testEvent),
		"UploadAvatar": func() error {
			_, err := bot.UploadAvatar(ctx, []byte{1}, "image/png")
			return err
		}(),
		"UpdateProfileImage": bot.UpdateProfileImage(ctx, "/nonexistent.png"),
		"Logout":             bot.Logout(ctx),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Errorf("%s before Login: got %v, want ErrNotLoggedIn", name, err)
		}
	}
	if actions := fake.actions(); len(actions) != 0 {
		t.Errorf("requests issued before login: %v", actions)
	}
}

func TestLoginCacheMissPersistsToken(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.expiresInMS = 3_600_000
	fakeClock := clock.Fake(testStart)
	store := newTestStore(t, fakeClock)
	bot := newTestBot(t, fake, store)

	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !bot.LoggedIn() {
		t.Fatal("LoggedIn = false after Login")
	}

	logins := fake.requestsFor("login")
	if len(logins) != 1 {
		t.Fatalf("got %d login requests, want 1", len(logins))
	}
	var body map[string]any
	if err := json.Unmarshal(logins[0].body, &body); err != nil {
		t.Fatal(err)
	}
	if body["user"] != "smsbot" || body["password"] != "hunter2" || body["type"] != "m.login.password" {
		t.Errorf("login body = %v", body)
	}

	token, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	if token == nil || token.AccessToken != "syt_fresh" {
		t.Fatalf("cached token = %+v, want syt_fresh", token)
	}
	if !token.ExpiresAt.Equal(testStart.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want %v", token.ExpiresAt, testStart.Add(time.Hour))
	}
}

func TestLoginWithoutServerExpiryUsesDefaultLifetime(t *testing.T) {
	fake := newFakeHomeserver(t)
	store := newTestStore(t, clock.Fake(testStart))
	bot := newTestBot(t, fake, store)

	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	token, err := store.Load()
	if err != nil || token == nil {
		t.Fatalf("store.Load = %v, %v", token, err)
	}
	if !token.ExpiresAt.Equal(testStart.Add(tokenstore.DefaultLifetime)) {
		t.Errorf("ExpiresAt = %v, want 24h after start", token.ExpiresAt)
	}
}

func TestLoginCacheHitSkipsServer(t *testing.T) {
	fake := newFakeHomeserver(t)
	store := newTestStore(t, clock.Fake(testStart))
	if _, err := store.Save("syt_cached", time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	bot := newTestBot(t, fake, store)

	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if actions := fake.actions(); len(actions) != 0 {
		t.Fatalf("cache hit contacted the server: %v", actions)
	}

	if _, err := bot.SendMessage(context.Background(), testRoom, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	sends := fake.requestsFor("send")
	if len(sends) != 1 || sends[0].authorization != "Bearer syt_cached" {
		t.Errorf("send used %+v, want the cached bearer token", sends)
	}
}

func TestLoginExpiredCacheLogsInAgain(t *testing.T) {
	fake := newFakeHomeserver(t)
	fakeClock := clock.Fake(testStart)
	store := newTestStore(t, fakeClock)
	if _, err := store.Save("syt_old", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fakeClock.Advance(2 * time.Minute)

	bot := newTestBot(t, fake, store)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(fake.requestsFor("login")) != 1 {
		t.Errorf("expired cache did not trigger a password login: %v", fake.actions())
	}
	token, _ := store.Load()
	if token == nil || token.AccessToken != "syt_fresh" {
		t.Errorf("cached token after relogin = %+v", token)
	}
}

func TestLoginCorruptCacheFallsBack(t *testing.T) {
	fake := newFakeHomeserver(t)
	store := newTestStore(t, clock.Fake(testStart))
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	bot := newTestBot(t, fake, store)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(fake.requestsFor("login")) != 1 {
		t.Errorf("corrupt cache did not trigger a password login: %v", fake.actions())
	}
	token, err := store.Load()
	if err != nil || token == nil || token.AccessToken != "syt_fresh" {
		t.Errorf("cache after relogin = %+v, %v", token, err)
	}
}

func TestLoginUnwritableCacheStillSucceeds(t *testing.T) {
	fake := newFakeHomeserver(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	// The token path's parent is a regular file, so Save must fail.
	store, err := tokenstore.New(tokenstore.Config{Path: filepath.Join(blocker, "token.json")})
	if err != nil {
		t.Fatal(err)
	}

	bot := newTestBot(t, fake, store)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login with unwritable cache: %v", err)
	}
	if !bot.LoggedIn() {
		t.Error("LoggedIn = false")
	}
}

func TestLoginFailure(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("login", http.StatusForbidden)
	bot := newTestBot(t, fake, nil)

	err := bot.Login(context.Background())
	if !messaging.IsMatrixError(err, messaging.ErrCodeForbidden) {
		t.Fatalf("expected M_FORBIDDEN, got %v", err)
	}
	if messaging.StatusCode(err) != http.StatusForbidden {
		t.Errorf("status = %d, want 403", messaging.StatusCode(err))
	}
	if bot.LoggedIn() {
		t.Error("LoggedIn = true after failed login")
	}
}

func TestLoginIsIdempotent(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if n := len(fake.requestsFor("login")); n != 1 {
		t.Errorf("got %d login requests, want 1", n)
	}
}

func TestJoinRoom(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)

	if err := bot.JoinRoom(context.Background(), testRoom); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	joins := fake.requestsFor("join")
	if len(joins) != 1 || joins[0].method != http.MethodPost || joins[0].path != "/_matrix/client/v3/rooms/!room:example.org/join" {
		t.Errorf("join requests = %+v", joins)
	}
}

func TestSendMessage(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)

	eventID, err := bot.SendMessage(context.Background(), testRoom, "Hello from SMS")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if eventID.String() != "$sent" {
		t.Errorf("event ID = %q", eventID)
	}
	var content map[string]any
	json.Unmarshal(fake.requestsFor("send")[0].body, &content)
	if content["msgtype"] != "m.text" || content["body"] != "Hello from SMS" {
		t.Errorf("content = %v", content)
	}
}

func TestSendMessageError(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("send", http.StatusForbidden)
	bot := loggedInBot(t, fake)

	_, err := bot.SendMessage(context.Background(), testRoom, "hi")
	var matrixErr *messaging.MatrixError
	if !errors.As(err, &matrixErr) {
		t.Fatalf("expected *MatrixError, got %v", err)
	}
	if matrixErr.StatusCode != http.StatusForbidden || !strings.Contains(matrixErr.Body, "send refused") {
		t.Errorf("MatrixError = %+v", matrixErr)
	}
}

func TestSendMessageToRoomJoinFailureStillSends(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("join", http.StatusForbidden)
	bot := loggedInBot(t, fake)

	eventID, err := bot.SendMessageToRoom(context.Background(), testRoom, "hi")
	if err != nil {
		t.Fatalf("SendMessageToRoom: %v", err)
	}
	if eventID.String() != "$sent" {
		t.Errorf("event ID = %q", eventID)
	}
	if got := fake.actions(); !equalActions(got, []string{"login", "join", "send"}) {
		t.Errorf("actions = %v", got)
	}
}

func TestDeleteMessageUsesReason(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)

	if err := bot.DeleteMessage(context.Background(), testRoom, testEvent); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	redactions := fake.requestsFor("redact")
	if len(redactions) != 1 {
		t.Fatalf("got %d redactions", len(redactions))
	}
	if !strings.Contains(redactions[0].path, "/redact/$event/") {
		t.Errorf("redact path = %s", redactions[0].path)
	}
	var body map[string]string
	json.Unmarshal(redactions[0].body, &body)
	if body["reason"] != DefaultRedactReason {
		t.Errorf("reason = %q, want %q", body["reason"], DefaultRedactReason)
	}
}

func TestEditMessage(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)

	if err := bot.EditMessage(context.Background(), testRoom, testEvent, "corrected"); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}
	edits := fake.requestsFor("edit")
	if len(edits) != 1 {
		t.Fatalf("got %d edits", len(edits))
	}
	var content messaging.MessageContent
	if err := json.Unmarshal(edits[0].body, &content); err != nil {
		t.Fatal(err)
	}
	if content.Body != "corrected" || content.RelatesTo == nil || content.RelatesTo.EventID != testEvent {
		t.Errorf("edit content = %+v", content)
	}
}

func TestSilentDelete(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)

	if err := bot.SilentDelete(context.Background(), testRoom, testEvent); err != nil {
		t.Fatalf("SilentDelete: %v", err)
	}
	if got := fake.actions(); !equalActions(got, []string{"login", "edit", "redact"}) {
		t.Fatalf("actions = %v, want edit then redact", got)
	}
	var content messaging.MessageContent
	json.Unmarshal(fake.requestsFor("edit")[0].body, &content)
	if content.Body != " " {
		t.Errorf("edit body = %q, want a single space", content.Body)
	}
}

func TestSilentDeleteRedactsWhenEditFails(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("edit", http.StatusInternalServerError)
	bot := loggedInBot(t, fake)

	if err := bot.SilentDelete(context.Background(), testRoom, testEvent); err != nil {
		t.Fatalf("SilentDelete with failing edit: %v", err)
	}
	if len(fake.requestsFor("redact")) != 1 {
		t.Errorf("redaction not attempted after failed edit: %v", fake.actions())
	}
}

func TestSilentDeleteReportsRedactFailure(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("redact", http.StatusForbidden)
	bot := loggedInBot(t, fake)

	err := bot.SilentDelete(context.Background(), testRoom, testEvent)
	if !messaging.IsMatrixError(err, messaging.ErrCodeForbidden) {
		t.Fatalf("expected redact failure, got %v", err)
	}
}

func TestEmptyIDsRejectedWithoutRequest(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)
	ctx := context.Background()

	if err := bot.DeleteMessage(ctx, testRoom, ref.EventID{}); err == nil {
		t.Error("DeleteMessage accepted empty event ID")
	}
	if err := bot.SilentDelete(ctx, testRoom, ref.EventID{}); err == nil {
		t.Error("SilentDelete accepted empty event ID")
	}
	if err := bot.EditMessage(ctx, testRoom, ref.EventID{}, "x"); err == nil {
		t.Error("EditMessage accepted empty event ID")
	}
	if _, err := bot.SendMessage(ctx, ref.RoomID{}, "x"); err == nil {
		t.Error("SendMessage accepted empty room ID")
	}
	if got := fake.actions(); !equalActions(got, []string{"login"}) {
		t.Errorf("requests issued for invalid IDs: %v", got)
	}
}

func TestLogoutRemovesCachedToken(t *testing.T) {
	fake := newFakeHomeserver(t)
	store := newTestStore(t, clock.Fake(testStart))
	bot := newTestBot(t, fake, store)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("token not cached: %v", err)
	}

	if err := bot.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("token file still present after logout: %v", err)
	}
	if bot.LoggedIn() {
		t.Error("LoggedIn = true after Logout")
	}
	logouts := fake.requestsFor("logout")
	if len(logouts) != 1 || logouts[0].authorization != "Bearer syt_fresh" {
		t.Errorf("logout requests = %+v", logouts)
	}
}

func TestLogoutServerFailureStillRemovesCache(t *testing.T) {
	fake := newFakeHomeserver(t)
	fake.fail("logout", http.StatusInternalServerError)
	store := newTestStore(t, clock.Fake(testStart))
	bot := newTestBot(t, fake, store)
	if err := bot.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := bot.Logout(context.Background()); err == nil {
		t.Fatal("expected logout error")
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := newFakeHomeserver(t)
	bot := loggedInBot(t, fake)
	if err := bot.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bot.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := bot.SendMessage(context.Background(), testRoom, "x"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("SendMessage after Close: %v", err)
	}
}
