package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

type AvatarService struct {
	hasher domain.ColourHasher
	broker domain.MessageBroker
	now    func() time.Time
}

// NewAvatarService wires a hasher and an optional broker. With a nil broker
// no assignment events are published.
func NewAvatarService(hasher domain.ColourHasher, broker domain.MessageBroker) *AvatarService {
	if hasher == nil {
		panic("usecase: nil colour hasher")
	}
	return &AvatarService{hasher: hasher, broker: broker, now: time.Now}
}

// Resolve derives the avatar for username and announces it on
// domain.ColourAssignedTopic.
func (s *AvatarService) Resolve(ctx context.Context, username string) (domain.Avatar, error) {
	colour, err := s.hasher.Hash([]byte(username))
	if err != nil {
		return domain.Avatar{}, fmt.Errorf("resolving colour for %q: %w", username, err)
	}

	avatar := domain.Avatar{
		Username: username,
		Initial:  Initial(username),
		Colour:   colour,
		Hex:      colour.Hex(),
	}

	s.publish(ctx, avatar)
	return avatar, nil
}

// Fallback is the avatar shown when no colour can be derived.
func (s *AvatarService) Fallback(username string) domain.Avatar {
	return domain.Avatar{
		Username: username,
		Initial:  Initial(username),
		Colour:   domain.Gray,
		Hex:      domain.Gray.Hex(),
	}
}

// Initial is the upper-cased first character drawn on the avatar.
func Initial(username string) string {
	r, size := utf8.DecodeRuneInString(username)
	if size == 0 {
		return ""
	}
	if r == utf8.RuneError && size == 1 {
		return "?"
	}
	return strings.ToUpper(string(r))
}

func (s *AvatarService) publish(ctx context.Context, avatar domain.Avatar) {
	if s.broker == nil {
		return
	}

	msg := domain.ColourAssignedMessage{
		ID:        uuid.NewString(),
		Username:  avatar.Username,
		Initial:   avatar.Initial,
		Hex:       avatar.Hex,
		R:         avatar.Colour.R,
		G:         avatar.Colour.G,
		B:         avatar.Colour.B,
		Timestamp: s.now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithCtx(ctx).Error("Failed to marshal colour assignment", zap.Error(err))
		return
	}

	if err := s.broker.Publish(ctx, domain.ColourAssignedTopic, avatar.Username, payload); err != nil {
		log.WithCtx(ctx).Warn("Failed to publish colour assignment",
			zap.String("username", avatar.Username), zap.Error(err))
	}
}
