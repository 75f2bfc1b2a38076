package message_broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redderi/avatar-colour/domain"
)

func receive(t *testing.T, ch <-chan domain.Message) domain.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return domain.Message{}
}

func TestPublishReachesExactAndTopicWideSubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()
	defer b.Close()

	exact, err := b.Subscribe(ctx, domain.ColourAssignedTopic, "alice")
	if err != nil {
		t.Fatal(err)
	}
	all, err := b.Subscribe(ctx, domain.ColourAssignedTopic, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Publish(ctx, domain.ColourAssignedTopic, "alice", []byte("hi")); err != nil {
		t.Fatal(err)
	}

	for _, ch := range []<-chan domain.Message{exact, all} {
		msg := receive(t, ch)
		if string(msg.Payload) != "hi" || msg.RoutingKey != "alice" {
			t.Errorf("unexpected message %+v", msg)
		}
	}
}

func TestPublishWithoutSubscriberIsDropped(t *testing.T) {
	b := NewChannelMessageBroker()
	defer b.Close()

	if err := b.Publish(context.Background(), "nobody.listens", "x", []byte("x")); err != nil {
		t.Fatalf("expected drop without error, got %v", err)
	}
	if n := b.GetTopicCount(); n != 0 {
		t.Errorf("publish must not create topics, got %d", n)
	}
}

func TestPublishFullChannel(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()
	defer b.Close()

	if _, err := b.Subscribe(ctx, "t", "k"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < channelBuffer; i++ {
		if err := b.Publish(ctx, "t", "k", nil); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := b.Publish(ctx, "t", "k", nil); err == nil {
		t.Error("expected full channel error")
	}
}

func TestClosedBroker(t *testing.T) {
	ctx := context.Background()
	b := NewChannelMessageBroker()
	ch, err := b.Subscribe(ctx, "t", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if !b.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if err := b.Publish(ctx, "t", "", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close = %v", err)
	}
	if _, err := b.Subscribe(ctx, "t", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after Close = %v", err)
	}
}
