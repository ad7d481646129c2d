package ws

import (
	"context"
	"testing"
	"time"
)

func TestHubDeliversToRoomSubscribersOnly(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	community := hub.Subscribe(ctx, CommunityRoom("b1"))
	other := hub.Subscribe(ctx, CommunityRoom("b2"))

	hub.Publish(Event{Room: CommunityRoom("b1"), Type: "community:message", Data: "hello"})

	select {
	case evt := <-community:
		if evt.Data != "hello" {
			t.Fatalf("unexpected payload %v", evt.Data)
		}
		if evt.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case evt := <-other:
		t.Fatalf("foreign building received event %v", evt)
	default:
	}
}

func TestHubSubscribeMultipleRooms(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, UserRoom("u1"), ThreadRoom("t1"))

	hub.Publish(Event{Room: ThreadRoom("t1"), Type: "thread:message"})
	hub.Publish(Event{Room: UserRoom("u1"), Type: "notice"})

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestHubDropsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, CommunityRoom("b1"))
	// Fill past the channel buffer; extra events must not block Publish.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{Room: CommunityRoom("b1"), Type: "community:message"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
	if len(ch) == 0 {
		t.Fatal("expected buffered events")
	}
}

func TestHubUnsubscribeOnContextCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, CommunityRoom("b1"))
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if n := hub.Subscribers(CommunityRoom("b1")); n != 0 {
					t.Fatalf("expected 0 subscribers, got %d", n)
				}
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}
