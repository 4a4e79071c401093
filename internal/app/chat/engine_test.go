package chat

import (
	"testing"
	"time"

	"chatrelay/internal/configs"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e := NewEngine(&configs.AppConfig{
		Environment:       "development",
		WorkerCount:       1,
		TaskQueueSize:     64,
		InactivityTimeout: time.Minute,
		MonitorInterval:   time.Minute,
	})
	t.Cleanup(e.Shutdown)
	return e
}

// nextEnvelopes polls the connection's outbound queue until frames appear.
func nextEnvelopes(t *testing.T, e *Engine, conn Conn) []Envelope {
	t.Helper()

	var frames [][]byte
	waitFor(t, time.Second, func() bool {
		frames = e.DrainOutbound(conn)
		return frames != nil
	})
	return decodeFrames(t, frames)
}

// assertQuiet fails if the connection receives anything within a short grace period.
func assertQuiet(t *testing.T, e *Engine, conn Conn) {
	t.Helper()

	time.Sleep(50 * time.Millisecond)
	if frames := e.DrainOutbound(conn); frames != nil {
		t.Fatalf("expected no delivery for %s, got %d frames", conn.ID(), len(frames))
	}
}

// TestEngineSessionLifecycle drives a full two-user session through the
// asynchronous pipeline: register, private message, disconnect, name reuse.
func TestEngineSessionLifecycle(t *testing.T) {
	e := newTestEngine(t)

	alice := newFakeConn("c-alice")
	e.Connected(alice)
	e.Dispatch(alice, []byte(`{"type":"register","sender":"alice"}`))

	replies := nextEnvelopes(t, e, alice)
	if len(replies) != 1 || replies[0].Type != TypeRegisterSuccess {
		t.Fatalf("expected register_success for alice, got %+v", replies)
	}
	if len(replies[0].UserList) != 1 || replies[0].UserList[0] != "alice" {
		t.Fatalf("expected userList [alice], got %v", replies[0].UserList)
	}

	bob := newFakeConn("c-bob")
	e.Connected(bob)
	e.Dispatch(bob, []byte(`{"type":"register","sender":"bob"}`))

	replies = nextEnvelopes(t, e, bob)
	if len(replies) != 1 || replies[0].Type != TypeRegisterSuccess {
		t.Fatalf("expected register_success for bob, got %+v", replies)
	}
	if len(replies[0].UserList) != 2 {
		t.Fatalf("expected two users, got %v", replies[0].UserList)
	}
	assertQuiet(t, e, alice)

	e.Dispatch(alice, []byte(`{"type":"private","sender":"alice","target":"bob","content":"hi"}`))

	replies = nextEnvelopes(t, e, bob)
	if len(replies) != 1 || replies[0].Type != TypePrivate || replies[0].Content != "hi" {
		t.Fatalf("expected private delivery to bob, got %+v", replies)
	}
	assertQuiet(t, e, alice)

	e.Dispatch(bob, []byte(`{"type":"disconnect","sender":"bob"}`))

	replies = nextEnvelopes(t, e, alice)
	if len(replies) != 1 || replies[0].Type != TypeUserDisconnected || replies[0].Content != "bob ha salido" {
		t.Fatalf("expected departure notice, got %+v", replies)
	}
	waitFor(t, time.Second, bob.wasCloseRequested)

	// The transport reports the close; only then is the name free again.
	e.Disconnected(bob)

	bob2 := newFakeConn("c-bob2")
	e.Connected(bob2)
	e.Dispatch(bob2, []byte(`{"type":"register","sender":"bob"}`))

	replies = nextEnvelopes(t, e, bob2)
	if len(replies) != 1 || replies[0].Type != TypeRegisterSuccess {
		t.Fatalf("freed username should be reusable, got %+v", replies)
	}
}

func TestEngineDisconnectedBeforeRegistration(t *testing.T) {
	e := newTestEngine(t)

	conn := newFakeConn("c1")
	e.Connected(conn)
	e.Disconnected(conn)

	if names := e.Users().ListUsernames(); len(names) != 0 {
		t.Fatalf("no user should have been registered, got %v", names)
	}

	// Frames for a vanished connection are dropped, not delivered.
	e.Dispatch(conn, []byte(`{"type":"list_users","sender":""}`))
	assertQuiet(t, e, conn)
}

func TestEngineShutdownIsIdempotent(t *testing.T) {
	e := NewEngine(&configs.AppConfig{
		Environment:       "development",
		WorkerCount:       2,
		TaskQueueSize:     16,
		InactivityTimeout: time.Minute,
		MonitorInterval:   time.Minute,
	})

	e.Shutdown()
	e.Shutdown()
}
