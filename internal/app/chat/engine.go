/*
Package chat contains the core logic of the relay.

This file defines the Engine struct, which serves as the central coordinator for the
entire relay: it owns the two registries, the worker pool, the protocol dispatcher,
and the inactivity monitor, and exposes the narrow surface the transport layer
drives (connection tracked, message arrived, connection closed).
*/
package chat

import (
	"github.com/rs/zerolog"

	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/logx"
)

// Engine coordinates the registries, the worker pool, and the inactivity monitor.
type Engine struct {
	// users is the authoritative identity/status table.
	users *UserRegistry

	// conns tracks live connections and their outbound queues.
	conns *ConnRegistry

	// dispatcher consumes inbound envelopes on worker goroutines.
	dispatcher *Dispatcher

	// pool moves inbound processing off the transport's read path.
	pool *Pool

	// monitor ages out idle users in the background.
	monitor *Monitor

	// structured logger with engine context.
	logger zerolog.Logger
}

// NewEngine constructs the engine and starts its worker pool and inactivity
// monitor. The caller must eventually call Shutdown.
func NewEngine(cfg *configs.AppConfig) *Engine {
	users := NewUserRegistry(cfg.InactivityTimeout)
	conns := NewConnRegistry()
	dispatcher := NewDispatcher(users, conns)

	e := &Engine{
		users:      users,
		conns:      conns,
		dispatcher: dispatcher,
		pool:       NewPool(cfg.TaskQueueSize, dispatcher.Handle),
		monitor:    NewMonitor(users, cfg.MonitorInterval),
		logger:     logx.Component("Engine"),
	}

	e.pool.Start(cfg.WorkerCount)
	e.monitor.Start()

	return e
}

// Connected records a freshly accepted connection. Called by the transport
// once per accepted socket, before any frame is read from it.
func (e *Engine) Connected(conn Conn) {
	e.conns.Track(conn)
}

// Dispatch queues one inbound raw frame for asynchronous processing.
func (e *Engine) Dispatch(conn Conn, data []byte) {
	e.pool.Dispatch(conn, data)
}

// Disconnected tears down all state for a closed connection: the connection
// entry and its outbound queue, and the bound user if registration had
// completed. The freed username is immediately available again.
func (e *Engine) Disconnected(conn Conn) {
	username := e.conns.Remove(conn)
	if username != "" {
		e.users.Remove(username)
	}
}

// DrainOutbound pops the connection's pending frames in FIFO order. Called
// only by the transport's writer goroutine for that connection.
func (e *Engine) DrainOutbound(conn Conn) [][]byte {
	return e.conns.DrainOutbound(conn)
}

// Users exposes the user registry (presence queries, tests).
func (e *Engine) Users() *UserRegistry {
	return e.users
}

// Conns exposes the connection registry (delivery queries, tests).
func (e *Engine) Conns() *ConnRegistry {
	return e.conns
}

// Shutdown stops the worker pool and the monitor. In-flight tasks finish;
// queued-but-unstarted tasks are discarded.
func (e *Engine) Shutdown() {
	e.logger.Info().Msg("Shutting down engine...")
	e.pool.Stop()
	e.monitor.Stop()
	e.logger.Info().Msg("Engine shutdown complete.")
}
