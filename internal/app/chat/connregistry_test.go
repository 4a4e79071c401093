package chat

import (
	"bytes"
	"testing"
)

func TestTrackBindAndRemove(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")

	cr.Track(conn)
	if !cr.Bind(conn, "alice") {
		t.Fatal("binding a tracked connection must succeed")
	}

	names := cr.ListUsernames()
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("expected [alice], got %v", names)
	}
	if bound := cr.BoundUsername(conn); bound != "alice" {
		t.Fatalf("expected bound username alice, got %q", bound)
	}

	if username := cr.Remove(conn); username != "alice" {
		t.Fatalf("remove should return the bound username, got %q", username)
	}
	if len(cr.ListUsernames()) != 0 {
		t.Fatal("registry should be empty after removal")
	}
}

func TestBindIgnoresRebind(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")

	cr.Track(conn)
	cr.Bind(conn, "alice")
	if cr.Bind(conn, "mallory") {
		t.Fatal("rebinding a bound connection must be refused")
	}

	names := cr.ListUsernames()
	if len(names) != 1 || names[0] != "alice" {
		t.Fatalf("rebind must keep the original binding, got %v", names)
	}
}

func TestBindUnknownConnectionFails(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")

	if cr.Bind(conn, "alice") {
		t.Fatal("binding an untracked connection must fail")
	}
	if len(cr.ListUsernames()) != 0 {
		t.Fatal("nothing should be bound")
	}
	if bound := cr.BoundUsername(conn); bound != "" {
		t.Fatalf("unknown connection has no bound username, got %q", bound)
	}
}

func TestRemoveUnboundConnection(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")

	cr.Track(conn)
	if username := cr.Remove(conn); username != "" {
		t.Fatalf("unbound connection has no username, got %q", username)
	}
	if username := cr.Remove(conn); username != "" {
		t.Fatal("double remove should be a harmless no-op")
	}
}

func TestOutboundQueueIsFIFO(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")
	cr.Track(conn)

	frames := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, frame := range frames {
		if !cr.EnqueueOutbound(conn, frame) {
			t.Fatal("enqueue to tracked connection should succeed")
		}
	}

	drained := cr.DrainOutbound(conn)
	if len(drained) != len(frames) {
		t.Fatalf("expected %d frames, got %d", len(frames), len(drained))
	}
	for i := range frames {
		if !bytes.Equal(drained[i], frames[i]) {
			t.Fatalf("frame %d out of order: got %q, want %q", i, drained[i], frames[i])
		}
	}

	if drained := cr.DrainOutbound(conn); drained != nil {
		t.Fatalf("second drain should be empty, got %d frames", len(drained))
	}
}

func TestEnqueueWakesWriter(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")
	cr.Track(conn)

	cr.EnqueueOutbound(conn, []byte("x"))
	if conn.wakeupCount() != 1 {
		t.Fatalf("enqueue should wake the writer exactly once, got %d", conn.wakeupCount())
	}
}

func TestEnqueueUnknownTargets(t *testing.T) {
	cr := NewConnRegistry()
	untracked := newFakeConn("ghost")

	if cr.EnqueueOutbound(untracked, []byte("x")) {
		t.Fatal("enqueue to untracked connection should fail")
	}
	if cr.EnqueueOutboundTo("nobody", []byte("x")) {
		t.Fatal("enqueue to unknown username should fail")
	}
}

func TestEnqueueOutboundToReachesOnlyTarget(t *testing.T) {
	cr := NewConnRegistry()
	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	cr.Track(alice)
	cr.Track(bob)
	cr.Bind(alice, "alice")
	cr.Bind(bob, "bob")

	if !cr.EnqueueOutboundTo("bob", []byte("hi")) {
		t.Fatal("enqueue to registered username should succeed")
	}

	if frames := cr.DrainOutbound(alice); frames != nil {
		t.Fatalf("alice's queue should be untouched, got %d frames", len(frames))
	}
	frames := cr.DrainOutbound(bob)
	if len(frames) != 1 || string(frames[0]) != "hi" {
		t.Fatalf("bob should have exactly the private frame, got %v", frames)
	}
}

func TestBroadcastReachesOnlyBoundConnections(t *testing.T) {
	cr := NewConnRegistry()
	alice := newFakeConn("c1")
	bob := newFakeConn("c2")
	pending := newFakeConn("c3") // connected but never registered
	cr.Track(alice)
	cr.Track(bob)
	cr.Track(pending)
	cr.Bind(alice, "alice")
	cr.Bind(bob, "bob")

	if reached := cr.Broadcast([]byte("all")); reached != 2 {
		t.Fatalf("broadcast should reach the two registered connections, got %d", reached)
	}

	if frames := cr.DrainOutbound(alice); len(frames) != 1 {
		t.Fatalf("alice should have the broadcast, got %d frames", len(frames))
	}
	if frames := cr.DrainOutbound(bob); len(frames) != 1 {
		t.Fatalf("bob should have the broadcast, got %d frames", len(frames))
	}
	if frames := cr.DrainOutbound(pending); frames != nil {
		t.Fatal("unregistered connection must not receive broadcasts")
	}
}

func TestRemoveDiscardsQueuedFrames(t *testing.T) {
	cr := NewConnRegistry()
	conn := newFakeConn("c1")
	cr.Track(conn)
	cr.Bind(conn, "alice")
	cr.EnqueueOutbound(conn, []byte("pending"))

	cr.Remove(conn)

	if frames := cr.DrainOutbound(conn); frames != nil {
		t.Fatal("queued frames must be discarded on removal")
	}
	if cr.EnqueueOutboundTo("alice", []byte("late")) {
		t.Fatal("username binding must be gone after removal")
	}
}
