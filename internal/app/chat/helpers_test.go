package chat

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// fakeConn is a transport stand-in for core tests. It records wakeups and
// close requests instead of touching a socket.
type fakeConn struct {
	id string
	ip string

	mu             sync.Mutex
	wakeups        int
	closeRequested bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, ip: "192.0.2.10"}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) RemoteIP() string {
	return c.ip
}

func (c *fakeConn) WakeWriter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wakeups++
}

func (c *fakeConn) RequestClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeRequested = true
}

func (c *fakeConn) wakeupCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wakeups
}

func (c *fakeConn) wasCloseRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeRequested
}

// decodeFrames unmarshals raw outbound frames back into envelopes.
func decodeFrames(t *testing.T, frames [][]byte) []Envelope {
	t.Helper()

	envelopes := make([]Envelope, 0, len(frames))
	for _, frame := range frames {
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("failed to decode outbound frame %q: %v", frame, err)
		}
		envelopes = append(envelopes, env)
	}
	return envelopes
}

// drainEnvelopes pops and decodes everything queued for the connection.
func drainEnvelopes(t *testing.T, conns *ConnRegistry, conn Conn) []Envelope {
	t.Helper()
	return decodeFrames(t, conns.DrainOutbound(conn))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
