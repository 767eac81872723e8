package ws

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supplyhub/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// floodHandler fans a burst of presence deliveries back into the hub
// from the connection lifecycle callback, the way the realtime core
// notifies every conversation partner of a status change.
type floodHandler struct {
	hub   *Hub
	burst int
	done  chan struct{}
}

func (f *floodHandler) HandleMarkRead(userID, conversationID string) error  { return nil }
func (f *floodHandler) HandleTyping(userID, conversationID string, t bool)  {}
func (f *floodHandler) HandleViewing(userID, conversationID string, v bool) {}
func (f *floodHandler) HandleDisconnected(userID string)                    {}

func (f *floodHandler) HandleConnected(userID string) {
	if userID != "buyer-1" {
		return
	}
	for i := 0; i < f.burst; i++ {
		f.hub.SendUserStatus(userID, userID, entity.Presence{IsOnline: true})
	}
	close(f.done)
}

func TestHub_EvictsStalledClientWhileStatusIsRead(t *testing.T) {
	h := NewHub(testLogger())
	go h.Run()

	// Unbuffered send channel that nothing drains, so the first
	// delivery evicts the connection.
	stalled := &Client{hub: h, send: make(chan []byte), userID: "supplier-1"}
	h.register <- stalled
	require.Eventually(t, func() bool { return h.IsOnline("supplier-1") },
		time.Second, 5*time.Millisecond)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					h.IsOnline("supplier-1")
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		h.SendNewMessage("supplier-1", entity.Message{ID: "m1"}, nil)
	}

	require.Eventually(t, func() bool { return !h.IsOnline("supplier-1") },
		time.Second, 5*time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestHub_StaysResponsiveDuringLifecycleFanOut(t *testing.T) {
	h := NewHub(testLogger())
	handler := &floodHandler{hub: h, burst: 300, done: make(chan struct{})}
	h.SetHandler(handler)
	go h.Run()

	first := &Client{hub: h, send: make(chan []byte), userID: "buyer-1"}
	h.register <- first

	// The fan-out exceeds the delivery buffer. The hub must keep
	// accepting registrations while it is in flight.
	second := &Client{hub: h, send: make(chan []byte, 8), userID: "buyer-2"}
	go func() { h.register <- second }()

	require.Eventually(t, func() bool { return h.IsOnline("buyer-2") },
		2*time.Second, 10*time.Millisecond)

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle fan-out never completed")
	}
}
