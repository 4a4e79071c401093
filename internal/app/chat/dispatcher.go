/*
Package chat contains the core logic of the relay.

This file defines the protocol dispatcher: the pure logic that consumes one inbound
envelope at a time, mutates the two registries, and appends zero or more outbound
envelopes to connection queues. It runs on worker goroutines and never touches a
socket directly.
*/
package chat

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

// Dispatcher turns inbound envelopes into registry mutations and outbound deliveries.
//
// Failure policy: malformed frames and frames missing required fields are
// dropped with a local log line and no reply. Domain failures (duplicate
// registration, unknown target, invalid status) answer the originating
// connection with an error envelope and leave the registries unchanged.
type Dispatcher struct {
	// users is the authoritative identity/status table.
	users *UserRegistry

	// conns tracks live connections and their outbound queues.
	conns *ConnRegistry

	// structured logger with dispatcher context.
	logger zerolog.Logger
}

// NewDispatcher constructs a dispatcher over the two registries.
func NewDispatcher(users *UserRegistry, conns *ConnRegistry) *Dispatcher {
	return &Dispatcher{
		users:  users,
		conns:  conns,
		logger: logx.Component("Dispatcher"),
	}
}

// Handle processes a single inbound task to completion.
func (d *Dispatcher) Handle(task Task) {
	var msg inboundEnvelope
	if err := json.Unmarshal(task.Data, &msg); err != nil {
		d.logger.Warn().Err(err).Str("conn_id", task.Conn.ID()).Msg("Client sent invalid JSON. Frame dropped.")
		return
	}

	if msg.Type == "" {
		d.logger.Warn().Str("conn_id", task.Conn.ID()).Msg("Inbound frame missing type. Frame dropped.")
		return
	}

	// Any sign of life refreshes presence, except the farewell itself.
	if msg.Sender != "" && msg.Type != TypeDisconnect {
		d.users.TouchActivity(msg.Sender)
	}

	switch msg.Type {
	case TypeRegister:
		d.handleRegister(task.Conn, msg)
	case TypeBroadcast:
		d.handleBroadcast(task.Conn, msg)
	case TypePrivate:
		d.handlePrivate(task.Conn, msg)
	case TypeListUsers:
		d.handleListUsers(task.Conn)
	case TypeUserInfo:
		d.handleUserInfo(task.Conn, msg)
	case TypeChangeStatus:
		d.handleChangeStatus(task.Conn, msg)
	case TypeDisconnect:
		d.handleDisconnect(task.Conn, msg)
	default:
		d.logger.Warn().Str("conn_id", task.Conn.ID()).Str("msg_type", msg.Type).Msg("Client sent unsupported message type. Frame dropped.")
	}
}

// handleRegister performs the atomic check-and-insert of a new user and binds
// the connection to it. Registration and connection-binding are established
// together and, on disconnect, torn down together.
func (d *Dispatcher) handleRegister(conn Conn, msg inboundEnvelope) {
	if !randx.IsValidUsername(msg.Sender) {
		d.logger.Warn().Str("conn_id", conn.ID()).Str("sender", msg.Sender).Msg("Register with invalid username. Frame dropped.")
		return
	}

	if bound := d.conns.BoundUsername(conn); bound != "" {
		d.logger.Info().Str("conn_id", conn.ID()).Str("bound_username", bound).Str("requested_username", msg.Sender).Msg("Registration rejected: connection already registered.")
		d.replyError(conn, errs.ErrAlreadyRegistered)
		return
	}

	ip := conn.RemoteIP()

	if !d.users.Register(msg.Sender, ip) {
		d.logger.Info().Str("conn_id", conn.ID()).Str("username", msg.Sender).Msg("Registration rejected: username taken.")
		d.replyError(conn, errs.ErrUserExists)
		return
	}

	if !d.conns.Bind(conn, msg.Sender) {
		// Registration and binding stand or fall together; a failed bind
		// (closed or concurrently bound connection) frees the name again.
		d.users.Remove(msg.Sender)
		d.logger.Warn().Str("conn_id", conn.ID()).Str("username", msg.Sender).Msg("Registration rolled back: connection could not be bound.")
		return
	}

	env := NewServerEnvelope(TypeRegisterSuccess, "Registro exitoso")
	env.UserList = d.users.ListUsernames()
	d.reply(conn, env)
}

// handleBroadcast relays chat text to every registered connection, the sender
// included, stamped with the server clock.
func (d *Dispatcher) handleBroadcast(conn Conn, msg inboundEnvelope) {
	if msg.Sender == "" {
		d.logger.Warn().Str("conn_id", conn.ID()).Msg("Broadcast missing sender. Frame dropped.")
		return
	}

	env := NewRelayEnvelope(TypeBroadcast, msg.Sender, msg.Content)
	data, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to encode broadcast envelope.")
		return
	}

	d.conns.Broadcast(data)
}

// handlePrivate relays chat text to the target user only. An unknown target
// answers the sender with an error envelope; nothing is delivered elsewhere.
func (d *Dispatcher) handlePrivate(conn Conn, msg inboundEnvelope) {
	if msg.Sender == "" || msg.Target == "" {
		d.logger.Warn().Str("conn_id", conn.ID()).Msg("Private message missing sender or target. Frame dropped.")
		return
	}

	env := NewRelayEnvelope(TypePrivate, msg.Sender, msg.Content)
	data, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to encode private envelope.")
		return
	}

	if !d.conns.EnqueueOutboundTo(msg.Target, data) {
		d.logger.Info().Str("conn_id", conn.ID()).Str("target", msg.Target).Msg("Private message to unknown target.")
		d.replyError(conn, errs.ErrUserNotFound)
	}
}

// handleListUsers answers the requesting connection with the current username list.
func (d *Dispatcher) handleListUsers(conn Conn) {
	env := NewServerEnvelope(TypeListUsersResponse, d.users.ListUsernames())
	d.reply(conn, env)
}

// handleUserInfo answers with the target's IP and status, or an error if the
// target is not registered.
func (d *Dispatcher) handleUserInfo(conn Conn, msg inboundEnvelope) {
	if msg.Target == "" {
		d.logger.Warn().Str("conn_id", conn.ID()).Msg("User info request missing target. Frame dropped.")
		return
	}

	info, ok := d.users.GetInfo(msg.Target)
	if !ok {
		d.replyError(conn, errs.ErrUserNotFound)
		return
	}

	env := NewServerEnvelope(TypeUserInfoResponse, info)
	env.Target = msg.Target
	d.reply(conn, env)
}

// handleChangeStatus validates the requested status against the enum and
// applies it, confirming with a status_update envelope.
func (d *Dispatcher) handleChangeStatus(conn Conn, msg inboundEnvelope) {
	if msg.Sender == "" {
		d.logger.Warn().Str("conn_id", conn.ID()).Msg("Status change missing sender. Frame dropped.")
		return
	}

	newStatus, ok := ParseStatus(msg.Content)
	if !ok || !d.users.ChangeStatus(msg.Sender, newStatus) {
		d.logger.Info().Str("conn_id", conn.ID()).Str("username", msg.Sender).Str("requested_status", msg.Content).Msg("Status change rejected.")
		d.replyError(conn, errs.ErrInvalidStatus)
		return
	}

	env := NewServerEnvelope(TypeStatusUpdate, StatusUpdateContent{User: msg.Sender, Status: newStatus})
	d.reply(conn, env)
}

// handleDisconnect broadcasts a departure notice and asks the transport to
// close the sender's connection. Registry cleanup happens on the resulting
// close event, not here.
func (d *Dispatcher) handleDisconnect(conn Conn, msg inboundEnvelope) {
	if msg.Sender == "" {
		d.logger.Warn().Str("conn_id", conn.ID()).Msg("Disconnect missing sender. Frame dropped.")
		return
	}

	env := NewServerEnvelope(TypeUserDisconnected, fmt.Sprintf("%s ha salido", msg.Sender))
	if data, err := env.Encode(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to encode disconnect notice.")
	} else {
		d.conns.Broadcast(data)
	}

	conn.RequestClose()
}

// reply encodes the envelope and queues it for the originating connection.
func (d *Dispatcher) reply(conn Conn, env Envelope) {
	data, err := env.Encode()
	if err != nil {
		d.logger.Error().Err(err).Str("msg_type", env.Type).Msg("Failed to encode reply envelope.")
		return
	}

	d.conns.EnqueueOutbound(conn, data)
}

// replyError queues an error envelope carrying the message for the given
// domain error code.
func (d *Dispatcher) replyError(conn Conn, code int) {
	d.reply(conn, NewServerEnvelope(TypeError, errs.NewError(code).Message))
}
