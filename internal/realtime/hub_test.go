package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testClient(hub *Hub) *Client {
	return &Client{
		hub: hub,
		out: make(chan []byte, outBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := testClient(hub)
	c2 := testClient(hub)

	hub.register(c1)
	hub.register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	// Unregistering twice must not panic
	hub.unregister(c1)
	hub.unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := testClient(hub)
	c2 := testClient(hub)
	hub.register(c1)
	hub.register(c2)

	hub.Broadcast(NewEvent("task", "completed", 7))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.out:
			var got Event
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Kind != "task_completed" {
				t.Errorf("kind = %q, want task_completed", got.Kind)
			}
			if got.ID != 7 {
				t.Errorf("id = %d, want 7", got.ID)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Must not panic
	hub.Broadcast(NewEvent("streak", "updated", 1))
}

func TestBroadcastFullBufferDrops(t *testing.T) {
	hub := NewHub(slog.Default())

	c := testClient(hub)
	hub.register(c)

	for i := 0; i < outBufferSize; i++ {
		hub.Broadcast(NewEvent("task", "updated", int64(i)))
	}
	// One past capacity: dropped, not blocked
	hub.Broadcast(NewEvent("task", "updated", 999))

	count := 0
drain:
	for {
		select {
		case <-c.out:
			count++
		default:
			break drain
		}
	}
	if count != outBufferSize {
		t.Errorf("expected %d buffered events, got %d", outBufferSize, count)
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent("completion", "verified", 12)
	if ev.Kind != "completion_verified" {
		t.Errorf("kind = %q, want completion_verified", ev.Kind)
	}
	if ev.Entity != "completion" || ev.Action != "verified" || ev.ID != 12 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestConcurrentClients(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := testClient(hub)
			hub.register(c)
			hub.Broadcast(NewEvent("task", "created", 0))
			for {
				select {
				case <-c.out:
				default:
					hub.unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent churn, got %d", got)
	}
}
