package message_broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("message broker is closed")

const channelBuffer = 100

// ChannelMessageBroker implements MessageBroker using Go channels
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.RWMutex
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// Publish delivers a message to the subscriber of topic/routingKey and to the
// topic-wide subscriber. Messages nobody subscribed to are dropped.
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	keys := []string{makeKey(topic, routingKey)}
	if routingKey != "" {
		keys = append(keys, makeKey(topic, ""))
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	delivered := 0
	for _, key := range keys {
		channel, exists := b.topics[key]
		if !exists {
			continue
		}

		select {
		case channel <- msg:
			delivered++
		case <-ctx.Done():
			return ctx.Err()
		default:
			return fmt.Errorf("topic channel is full: %s", key)
		}
	}

	log.WithCtx(ctx).Debug("Message published to topic",
		zap.String("topic", topic),
		zap.String("routingKey", routingKey),
		zap.Int("payload_size", len(message)),
		zap.Int("delivered", delivered))
	return nil
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	key := makeKey(topic, routingKey)
	channel, exists := b.topics[key]
	if !exists {
		channel = make(chan domain.Message, channelBuffer)
		b.topics[key] = channel
	}

	log.WithCtx(ctx).Info("Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.With().Debug("Closed topic channel", zap.String("key", key))
	}

	b.topics = make(map[string]chan domain.Message)

	log.With().Info("Message broker closed")
	return nil
}

// GetTopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) GetTopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
