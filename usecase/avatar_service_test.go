package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redderi/avatar-colour/adapters/hasher"
	"github.com/redderi/avatar-colour/adapters/message_broker"
	"github.com/redderi/avatar-colour/domain"
)

type failingBroker struct{ calls int }

func (f *failingBroker) Publish(context.Context, string, string, []byte) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingBroker) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return nil, errors.New("broker down")
}

func (f *failingBroker) Close() error { return nil }

func TestResolve(t *testing.T) {
	svc := NewAvatarService(hasher.New(), nil)

	avatar, err := svc.Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if avatar.Initial != "A" {
		t.Errorf("Initial = %q", avatar.Initial)
	}
	if avatar.Hex != "#6a8a81" {
		t.Errorf("Hex = %s", avatar.Hex)
	}
	if avatar.Colour.B != float32(129)/255 {
		t.Errorf("B = %f", avatar.Colour.B)
	}
}

func TestResolveEmpty(t *testing.T) {
	svc := NewAvatarService(hasher.New(), nil)

	_, err := svc.Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestResolvePublishesAssignment(t *testing.T) {
	ctx := context.Background()
	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	feed, err := broker.Subscribe(ctx, domain.ColourAssignedTopic, "")
	if err != nil {
		t.Fatal(err)
	}

	svc := NewAvatarService(hasher.New(), broker)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Resolve(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-feed:
		var assigned domain.ColourAssignedMessage
		if err := json.Unmarshal(msg.Payload, &assigned); err != nil {
			t.Fatal(err)
		}
		if assigned.Username != "bob" || assigned.Hex != "#7891b8" {
			t.Errorf("unexpected assignment %+v", assigned)
		}
		if assigned.ID == "" {
			t.Error("assignment should carry an ID")
		}
		if !assigned.Timestamp.Equal(fixed) {
			t.Errorf("Timestamp = %s", assigned.Timestamp)
		}
	case <-time.After(time.Second):
		t.Fatal("no assignment published")
	}
}

func TestResolveIgnoresBrokerFailure(t *testing.T) {
	broker := &failingBroker{}
	svc := NewAvatarService(hasher.New(), broker)

	if _, err := svc.Resolve(context.Background(), "carol"); err != nil {
		t.Fatalf("broker failure must not fail Resolve: %v", err)
	}
	if broker.calls != 1 {
		t.Errorf("Publish calls = %d", broker.calls)
	}
}

func TestFallback(t *testing.T) {
	svc := NewAvatarService(hasher.New(), nil)
	avatar := svc.Fallback("")
	if avatar.Hex != "#888888" {
		t.Errorf("Hex = %s", avatar.Hex)
	}
	if avatar.Initial != "" {
		t.Errorf("Initial = %q", avatar.Initial)
	}
}

func TestInitial(t *testing.T) {
	cases := map[string]string{
		"alice":  "A",
		"Bob":    "B",
		"ünal":   "Ü",
		"9lives": "9",
		"":       "",
		"\xff":   "?",
	}
	for in, want := range cases {
		if got := Initial(in); got != want {
			t.Errorf("Initial(%q) = %q, want %q", in, got, want)
		}
	}
}
