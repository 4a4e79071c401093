/*
Package chat contains the core logic of the relay.

This file defines the Conn interface, the core's view of a live transport connection.
The transport layer owns the actual socket; the core only tracks connections, queues
outbound bytes for them, and signals the transport when there is work to write.
*/
package chat

// Conn is an opaque handle to a live client connection, implemented by the
// transport layer. Implementations must be comparable (pointer types) so the
// connection registry can key its maps by them.
//
// Workers never write a socket: they append to the connection's outbound queue
// in the registry and call WakeWriter. Only the transport's writer goroutine
// for that connection drains the queue and performs the actual writes.
type Conn interface {
	// ID returns a stable unique identifier for this connection.
	ID() string

	// RemoteIP returns the peer's IP address, without port.
	RemoteIP() string

	// WakeWriter asks the transport to drain this connection's outbound queue.
	// It must never block; redundant wakeups must coalesce.
	WakeWriter()

	// RequestClose asks the transport to close the connection. Registry
	// cleanup happens on the resulting close event, not here. It must be
	// safe to call more than once and must never block.
	RequestClose()
}
