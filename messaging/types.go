// Copyright 2026 The smsbot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/smsbot-matrix/smsbot/lib/ref"
)

// Message types.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"
)

// Relation types.
const (
	RelTypeReplace = "m.replace"
)

// LoginRequest is the body of POST /login with the password flow.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
	// ExpiresInMS is the token lifetime in milliseconds. Absent (zero)
	// when the homeserver issues non-expiring tokens.
	ExpiresInMS int64 `json:"expires_in_ms,omitempty"`
}

// WhoAmIResponse is returned by GET /account/whoami.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// MessageContent is the content of an m.room.message event. For an
// edit, RelatesTo points at the original event and NewContent carries
// the replacement.
type MessageContent struct {
	MsgType    string          `json:"msgtype"`
	Body       string          `json:"body"`
	RelatesTo  *RelatesTo      `json:"m.relates_to,omitempty"`
	NewContent *MessageContent `json:"m.new_content,omitempty"`
}

// RelatesTo expresses a relationship to another event.
type RelatesTo struct {
	RelType string      `json:"rel_type"`
	EventID ref.EventID `json:"event_id"`
}

// NewTextMessage returns the content of a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeText, Body: body}
}

// NewEdit returns the content of an m.replace edit of target.
func NewEdit(target ref.EventID, body string) MessageContent {
	replacement := NewTextMessage(body)
	return MessageContent{
		MsgType:    MsgTypeText,
		Body:       body,
		RelatesTo:  &RelatesTo{RelType: RelTypeReplace, EventID: target},
		NewContent: &replacement,
	}
}

// SendEventResponse is returned by the send and redact endpoints.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// RedactRequest is the body of a redaction.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// JoinResponse is returned by the join endpoint.
type JoinResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// UploadResponse is returned by POST /_matrix/media/v3/upload.
type UploadResponse struct {
	ContentURI string `json:"content_uri"`
}

// AvatarURLRequest is the body of PUT /profile/{userId}/avatar_url.
type AvatarURLRequest struct {
	AvatarURL string `json:"avatar_url"`
}
