package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

// TokenParser validates a bearer token and returns its username.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

type Server struct {
	upgrader      websocket.Upgrader
	resolve       Resolver
	messageBroker domain.MessageBroker
	tokens        TokenParser
	hub           *Hub
}

func NewServer(resolve Resolver, messageBroker domain.MessageBroker, tokens TokenParser) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		resolve:       resolve,
		messageBroker: messageBroker,
		tokens:        tokens,
		hub:           NewHub(),
	}
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// ListenAssignments relays colour assignments from the broker to every
// connected client until ctx is done or the broker closes.
func (s *Server) ListenAssignments(ctx context.Context) error {
	messageChan, err := s.messageBroker.Subscribe(ctx, domain.ColourAssignedTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("Failed to subscribe to assignment topic", zap.Error(err))
		return err
	}

	log.WithCtx(ctx).Info("WebSocket server listening to colour assignments")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("Assignment feed closed")
				return nil
			}
			s.relay(ctx, msg)

		case <-ctx.Done():
			log.WithCtx(ctx).Info("Assignment listener stopped")
			return ctx.Err()
		}
	}
}

func (s *Server) relay(ctx context.Context, msg domain.Message) {
	var assigned domain.ColourAssignedMessage
	if err := json.Unmarshal(msg.Payload, &assigned); err != nil {
		log.WithCtx(ctx).Error("Failed to unmarshal colour assignment", zap.Error(err))
		return
	}

	frame, err := json.Marshal(Message{
		Type:      TypeAssigned,
		Timestamp: assigned.Timestamp,
		Data:      assigned,
	})
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	n := s.hub.Broadcast(frame)
	log.WithCtx(ctx).Debug("Broadcasted colour assignment",
		zap.String("username", assigned.Username),
		zap.String("hex", assigned.Hex),
		zap.Int("clients", n))
}

// Shutdown closes every client connection.
func (s *Server) Shutdown(ctx context.Context) {
	s.hub.mu.RLock()
	clients := make([]*Client, 0, len(s.hub.clients))
	for c := range s.hub.clients {
		clients = append(clients, c)
	}
	s.hub.mu.RUnlock()

	for _, c := range clients {
		s.hub.Unregister(c)
	}

	log.WithCtx(ctx).Info("WebSocket clients closed", zap.Int("count", len(clients)))
}

func isInvalidInput(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}
