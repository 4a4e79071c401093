/*
Package chat contains the core logic of the relay: the user and connection registries,
the task queue and worker pool, the protocol dispatcher, and the inactivity monitor.

This file defines the wire envelope exchanged with clients, the protocol message type
constants, and the user status enum.
*/
package chat

import (
	"encoding/json"
	"time"
)

// Inbound message types accepted from clients.
const (
	TypeRegister     = "register"
	TypeBroadcast    = "broadcast"
	TypePrivate      = "private"
	TypeListUsers    = "list_users"
	TypeUserInfo     = "user_info"
	TypeChangeStatus = "change_status"
	TypeDisconnect   = "disconnect"
)

// Outbound message types produced by the server.
const (
	TypeRegisterSuccess   = "register_success"
	TypeListUsersResponse = "list_users_response"
	TypeUserInfoResponse  = "user_info_response"
	TypeStatusUpdate      = "status_update"
	TypeUserDisconnected  = "user_disconnected"
	TypeError             = "error"
)

// ServerSender is the sender field stamped on every server-produced envelope.
const ServerSender = "server"

// TimestampFormat is the wall-clock format used on server-produced envelopes.
const TimestampFormat = time.RFC3339

// Status represents the presence state of a registered user.
type Status string

const (
	// StatusActive marks a user that has shown recent activity.
	StatusActive Status = "ACTIVE"

	// StatusBusy marks a user that explicitly asked not to be disturbed.
	StatusBusy Status = "BUSY"

	// StatusInactive marks a user that idled past the inactivity timeout
	// or explicitly stepped away.
	StatusInactive Status = "INACTIVE"
)

// ParseStatus validates a client-supplied status string against the enum.
// The second return value reports whether the input was valid.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusBusy, StatusInactive:
		return Status(s), true
	default:
		return "", false
	}
}

// Envelope is the single self-contained wire message exchanged with clients,
// one JSON object per WebSocket text frame.
type Envelope struct {
	// Type discriminates the message (see the type constants above).
	Type string `json:"type"`

	// Sender is the originating or subject username; "server" on server-produced envelopes.
	Sender string `json:"sender,omitempty"`

	// Target is the recipient or queried username (private, user_info).
	Target string `json:"target,omitempty"`

	// Content carries chat text, a status name, a username array, or a structured payload.
	Content any `json:"content,omitempty"`

	// Timestamp is the server wall-clock stamp, present on server-produced envelopes.
	Timestamp string `json:"timestamp,omitempty"`

	// UserList carries all currently registered usernames; register_success only.
	UserList []string `json:"userList,omitempty"`
}

// inboundEnvelope is the shape the dispatcher parses client frames into.
// Inbound content is always a plain string (chat text or a status name).
type inboundEnvelope struct {
	Type    string `json:"type"`
	Sender  string `json:"sender"`
	Target  string `json:"target"`
	Content string `json:"content"`
}

// UserInfoContent is the structured content of a user_info_response envelope.
type UserInfoContent struct {
	IP     string `json:"ip"`
	Status Status `json:"status"`
}

// StatusUpdateContent is the structured content of a status_update envelope.
type StatusUpdateContent struct {
	User   string `json:"user"`
	Status Status `json:"status"`
}

// NewServerEnvelope builds an envelope originated by the server itself,
// stamped with the current wall-clock time.
func NewServerEnvelope(msgType string, content any) Envelope {
	return Envelope{
		Type:      msgType,
		Sender:    ServerSender,
		Content:   content,
		Timestamp: time.Now().Format(TimestampFormat),
	}
}

// NewRelayEnvelope builds an envelope that forwards a client's message
// (broadcast or private) under the original sender's name, stamped with the
// server wall-clock time.
func NewRelayEnvelope(msgType, sender, content string) Envelope {
	return Envelope{
		Type:      msgType,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().Format(TimestampFormat),
	}
}

// Encode marshals the envelope into its wire representation.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
