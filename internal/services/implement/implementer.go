package implement

import (
	"context"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Publisher is the event stream the implement commands go out on.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Service turns approved suggestions into implement commands for the content
// site. The site backend owns the actual page mutation; this service emits
// the command event carrying the suggestion payload.
type Service struct {
	publisher Publisher
	log       *logger.Logger
}

// New creates the implementer.
func New(publisher Publisher) *Service {
	return &Service{
		publisher: publisher,
		log:       logger.Get().With("component", "implementer"),
	}
}

// Implement publishes the implement command for a suggestion.
func (s *Service) Implement(ctx context.Context, sg *suggestion.Suggestion) error {
	if sg == nil {
		return errors.ErrInvalidInput
	}

	data, err := sg.GetData()
	if err != nil {
		return errors.Wrap(err, "decode suggestion payload")
	}

	event := map[string]interface{}{
		"suggestion_id": sg.ID.String(),
		"agent_type":    sg.AgentType,
		"target_type":   sg.TargetType,
		"target_id":     sg.TargetID,
		"data":          data,
	}
	if err := s.publisher.Publish(ctx, kafka.TopicSuggestionImplemented, sg.ID.String(), event); err != nil {
		return errors.Wrapf(errors.ErrExternal, "publish implement command: %v", err)
	}

	s.log.Info("Implement command published",
		"suggestion", sg.ID,
		"target_type", sg.TargetType,
	)
	return nil
}
