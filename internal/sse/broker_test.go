package sse

import (
	"strings"
	"testing"
	"time"
)

func waitForCount(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", b.ClientCount(), want)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	waitForCount(t, b, 2)

	b.Unsubscribe(ch1)
	waitForCount(t, b, 1)

	// The unsubscribed channel is closed.
	select {
	case _, ok := <-ch1:
		if ok {
			t.Error("unsubscribed channel received data")
		}
	case <-time.After(time.Second):
		t.Error("unsubscribed channel not closed")
	}

	b.Unsubscribe(ch2)
	waitForCount(t, b, 0)
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	ch := b.Subscribe()
	waitForCount(t, b, 1)

	b.Publish(Event{Type: "test.event", Data: map[string]string{"k": "v"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: test.event") {
			t.Errorf("missing event line: %q", s)
		}
		if !strings.Contains(s, `"k":"v"`) {
			t.Errorf("missing payload: %q", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishAssetEventTypes(t *testing.T) {
	b := NewBroker(time.Hour) // suppress the registry event for this test
	defer b.Close()

	ch := b.Subscribe()
	waitForCount(t, b, 1)

	// The very first asset event always carries one registry.updated; drain it.
	b.PublishAssetEvent("created", "asset_aa")
	got := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case msg := <-ch:
			for _, line := range strings.Split(string(msg), "\n") {
				if name, ok := strings.CutPrefix(line, "event: "); ok {
					got[name] = true
				}
			}
		case <-timeout:
			t.Fatalf("timed out, events so far: %v", got)
		}
	}
	if !got["asset.created"] || !got["registry.updated"] {
		t.Errorf("events = %v", got)
	}

	cases := []struct {
		kind string
		want string
	}{
		{"updated", "asset.updated"},
		{"deleted", "asset.deleted"},
		{"resynced", "store.resynced"},
	}
	for _, tc := range cases {
		b.PublishAssetEvent(tc.kind, "asset_aa")
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), "event: "+tc.want) {
				t.Errorf("kind %s produced %q, want %s", tc.kind, msg, tc.want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("kind %s: no event received", tc.kind)
		}
	}
}

func TestRegistryEventThrottle(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	waitForCount(t, b, 1)

	for i := 0; i < 10; i++ {
		b.PublishAssetEvent("updated", "asset_aa")
	}

	// Drain until quiet; only one registry.updated may appear.
	registryEvents := 0
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatal("channel closed")
			}
			if strings.Contains(string(msg), "event: registry.updated") {
				registryEvents++
			}
		case <-time.After(500 * time.Millisecond):
			if registryEvents != 1 {
				t.Errorf("registry.updated count = %d, want 1", registryEvents)
			}
			return
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	b := NewBroker(time.Second)
	ch := b.Subscribe()
	waitForCount(t, b, 1)

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("client channel received data after close")
		}
	case <-time.After(time.Second):
		t.Error("client channel not closed")
	}

	// Post-close calls must not panic or block.
	b.Publish(Event{Type: "x"})
	b.PublishAssetEvent("created", "asset_aa")
	if n := b.ClientCount(); n != 0 {
		t.Errorf("client count after close = %d", n)
	}
	b.Unsubscribe(ch)
}
