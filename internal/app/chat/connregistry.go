/*
Package chat contains the core logic of the relay.

This file defines the ConnRegistry, which tracks live connections, binds them to
usernames on registration, and owns the per-connection outbound queues. Appending
to a queue never touches the socket; the transport's writer goroutine is woken and
drains the queue on its own thread.
*/
package chat

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// connEntry is the registry's record for one live connection.
type connEntry struct {
	// username is empty until the connection completes registration.
	username string

	// outbound is the FIFO queue of wire frames awaiting transmission.
	outbound [][]byte
}

// ConnRegistry maps live connections to usernames and owns their outbound queues.
// All operations are serialized by a single registry lock.
//
// Lock ordering: neither registry calls into the other, so their locks are
// never nested. Callers that need both (the dispatcher) use them sequentially.
type ConnRegistry struct {
	// mu protects conns and byName.
	mu sync.Mutex

	// conns maps every tracked connection to its entry.
	conns map[Conn]*connEntry

	// byName maps a registered username back to its connection.
	byName map[string]Conn

	// structured logger with registry context.
	logger zerolog.Logger
}

// NewConnRegistry constructs an empty connection registry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		conns:  make(map[Conn]*connEntry),
		byName: make(map[string]Conn),
		logger: logx.Component("ConnRegistry"),
	}
}

// Track records a freshly accepted connection with no username bound yet.
// Tracking makes the connection reachable for direct replies (e.g. the error
// envelope answering a failed registration).
func (cr *ConnRegistry) Track(conn Conn) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if _, ok := cr.conns[conn]; ok {
		cr.logger.Warn().Str("conn_id", conn.ID()).Msg("Connection already tracked.")
		return
	}

	cr.conns[conn] = &connEntry{}
	cr.logger.Debug().Str("conn_id", conn.ID()).Int("total_conns", len(cr.conns)).Msg("Connection tracked.")
}

// Bind associates a tracked connection with a username. It reports whether
// the binding was established: a connection that is already bound keeps its
// existing binding, and an unknown connection (transport close raced the
// worker) binds nothing. Callers must undo any registration they made when
// Bind returns false, so a username never exists without a bound connection.
func (cr *ConnRegistry) Bind(conn Conn, username string) bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	entry, ok := cr.conns[conn]
	if !ok {
		cr.logger.Warn().Str("conn_id", conn.ID()).Str("username", username).Msg("Bind requested for unknown connection.")
		return false
	}

	if entry.username != "" {
		cr.logger.Warn().
			Str("conn_id", conn.ID()).
			Str("bound_username", entry.username).
			Str("requested_username", username).
			Msg("Connection already bound. Ignoring rebind attempt.")
		return false
	}

	entry.username = username
	cr.byName[username] = conn
	cr.logger.Info().Str("conn_id", conn.ID()).Str("username", username).Msg("Connection bound to user.")
	return true
}

// BoundUsername returns the username bound to the connection, or "" if the
// connection is unknown or has not completed registration.
func (cr *ConnRegistry) BoundUsername(conn Conn) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if entry, ok := cr.conns[conn]; ok {
		return entry.username
	}
	return ""
}

// Remove unbinds and forgets a connection, discarding any queued outbound
// frames. It returns the previously bound username, or "" if the connection
// never registered.
func (cr *ConnRegistry) Remove(conn Conn) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	entry, ok := cr.conns[conn]
	if !ok {
		return ""
	}

	delete(cr.conns, conn)

	username := entry.username
	if username != "" {
		delete(cr.byName, username)
	}

	cr.logger.Info().
		Str("conn_id", conn.ID()).
		Str("username", username).
		Int("dropped_frames", len(entry.outbound)).
		Int("total_conns", len(cr.conns)).
		Msg("Connection removed.")

	return username
}

// EnqueueOutbound appends a wire frame to the connection's outbound queue and
// wakes the transport writer. It returns false if the connection is unknown.
func (cr *ConnRegistry) EnqueueOutbound(conn Conn, data []byte) bool {
	cr.mu.Lock()
	entry, ok := cr.conns[conn]
	if ok {
		entry.outbound = append(entry.outbound, data)
	}
	cr.mu.Unlock()

	if !ok {
		cr.logger.Warn().Str("conn_id", conn.ID()).Msg("Enqueue requested for unknown connection. Frame dropped.")
		return false
	}

	conn.WakeWriter()
	return true
}

// EnqueueOutboundTo appends a wire frame to the queue of the connection bound
// to the given username. It returns false if no such user is connected.
func (cr *ConnRegistry) EnqueueOutboundTo(username string, data []byte) bool {
	cr.mu.Lock()
	conn, ok := cr.byName[username]
	if ok {
		cr.conns[conn].outbound = append(cr.conns[conn].outbound, data)
	}
	cr.mu.Unlock()

	if !ok {
		return false
	}

	conn.WakeWriter()
	return true
}

// Broadcast appends a wire frame to the outbound queue of every registered
// (username-bound) connection, including the sender's. It returns the number
// of connections reached.
func (cr *ConnRegistry) Broadcast(data []byte) int {
	cr.mu.Lock()
	targets := make([]Conn, 0, len(cr.byName))
	for _, conn := range cr.byName {
		cr.conns[conn].outbound = append(cr.conns[conn].outbound, data)
		targets = append(targets, conn)
	}
	cr.mu.Unlock()

	for _, conn := range targets {
		conn.WakeWriter()
	}

	cr.logger.Debug().Int("recipients", len(targets)).Msg("Broadcast frame enqueued.")
	return len(targets)
}

// DrainOutbound pops every currently queued frame for the connection, in FIFO
// order. Only the transport's writer goroutine for that connection calls this.
func (cr *ConnRegistry) DrainOutbound(conn Conn) [][]byte {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	entry, ok := cr.conns[conn]
	if !ok || len(entry.outbound) == 0 {
		return nil
	}

	pending := entry.outbound
	entry.outbound = nil
	return pending
}

// ListUsernames returns the usernames of all registered connections, sorted
// for deterministic output.
func (cr *ConnRegistry) ListUsernames() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	names := make([]string, 0, len(cr.byName))
	for name := range cr.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
