package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key.
	// An empty routing key receives every message on the topic.
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// ColourAssignedTopic carries a ColourAssignedMessage for every resolved avatar.
const ColourAssignedTopic = "avatar.colour.assigned"

// ColourAssignedMessage is published whenever a username is resolved to a colour
type ColourAssignedMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Initial   string    `json:"initial"`
	Hex       string    `json:"hex"`
	R         float32   `json:"r"`
	G         float32   `json:"g"`
	B         float32   `json:"b"`
	Timestamp time.Time `json:"timestamp"`
}
