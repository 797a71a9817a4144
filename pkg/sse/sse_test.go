package sse

import (
	"testing"
	"time"
)

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return ""
	}
}

func TestHubGroups(t *testing.T) {
	h := NewHub()

	a := h.AddClient("a")
	b := h.AddClient("b")
	h.Join("a", "alert:1")
	h.Join("b", "alert:2")

	if got := h.GroupSize("alert:1"); got != 1 {
		t.Fatalf("GroupSize = %d, want 1", got)
	}

	h.SendToGroup("alert:1", "hello")
	if msg := recv(t, a); msg != "data: hello\n\n" {
		t.Errorf("unexpected event %q", msg)
	}
	select {
	case msg := <-b.ch:
		t.Errorf("client b should not receive %q", msg)
	default:
	}
}

func TestHubJSONAndRemoval(t *testing.T) {
	h := NewHub()
	a := h.AddClient("a")
	h.Join("a", "alert:1")

	h.SendToGroupJSON("alert:1", map[string]int{"n": 1})
	if msg := recv(t, a); msg != "data: {\"n\":1}\n\n" {
		t.Errorf("unexpected event %q", msg)
	}

	h.RemoveClient("a")
	if got := h.GroupSize("alert:1"); got != 0 {
		t.Fatalf("GroupSize after removal = %d, want 0", got)
	}
	select {
	case <-a.done:
	default:
		t.Error("done channel should be closed on removal")
	}
}

func TestHubSlowClientDropsEvents(t *testing.T) {
	h := NewHub()
	c := h.AddClient("slow")
	h.Join("slow", "alert:1")

	// Flood far past the buffer; the sender must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.SendToGroup("alert:1", "x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SendToGroup blocked on a slow client")
	}
	if len(c.ch) != cap(c.ch) {
		t.Errorf("buffer should be full, have %d of %d", len(c.ch), cap(c.ch))
	}
}

func TestJoinUnknownClient(t *testing.T) {
	h := NewHub()
	h.Join("ghost", "alert:1") // must not panic
	if got := h.GroupSize("alert:1"); got != 0 {
		t.Fatalf("GroupSize = %d, want 0", got)
	}
}
