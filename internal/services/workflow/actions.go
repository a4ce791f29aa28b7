package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

const defaultReviewDelayMinutes = 60

// executeAction performs one side-effecting action for an applicable rule.
func (e *Evaluator) executeAction(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion, action workflow.Action) error {
	switch action.Type {
	case workflow.ActionAutoApprove:
		return e.autoApprove(ctx, rule, s)

	case workflow.ActionAutoImplement:
		return e.autoImplement(ctx, rule, s)

	case workflow.ActionNotifyAdmin:
		return e.notifyAdmin(ctx, rule, s, action)

	case workflow.ActionScheduleReview:
		return e.scheduleReview(ctx, rule, s, action)

	case workflow.ActionCreateTask:
		return e.createTask(ctx, rule, s, action)

	default:
		return errors.Wrapf(errors.ErrUnknownActionType, "%q", action.Type)
	}
}

func (e *Evaluator) autoApprove(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion) error {
	note := fmt.Sprintf("auto-approved by workflow rule %q", rule.Name)
	if err := e.suggestions.UpdateStatus(ctx, s.ID, suggestion.StatusApproved, note); err != nil {
		return errors.Wrap(err, "update suggestion status")
	}
	s.Status = suggestion.StatusApproved
	s.StatusNote = note

	if e.publisher != nil {
		_ = e.publisher.Publish(ctx, kafka.TopicSuggestionApproved, s.ID.String(), map[string]interface{}{
			"suggestion_id": s.ID.String(),
			"rule_name":     rule.Name,
		})
	}
	return nil
}

func (e *Evaluator) autoImplement(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion) error {
	if e.implementer == nil {
		return errors.Wrap(errors.ErrUnavailable, "no implementer configured")
	}
	if err := e.implementer.Implement(ctx, s); err != nil {
		return errors.Wrap(err, "implement suggestion")
	}

	note := fmt.Sprintf("auto-implemented by workflow rule %q", rule.Name)
	if err := e.suggestions.UpdateStatus(ctx, s.ID, suggestion.StatusImplemented, note); err != nil {
		return errors.Wrap(err, "update suggestion status")
	}
	s.Status = suggestion.StatusImplemented
	s.StatusNote = note

	// The implementer publishes the implement command itself; nothing more
	// to announce here.
	return nil
}

func (e *Evaluator) notifyAdmin(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion, action workflow.Action) error {
	message := toString(action.Parameters["message"])
	if message == "" {
		message = fmt.Sprintf("Rule %q matched a %s suggestion (confidence %.0f%%)",
			rule.Name, s.TargetType, s.ConfidenceScore*100)
	}

	n := &workflow.Notification{
		ID:           uuid.New(),
		SuggestionID: s.ID,
		Title:        fmt.Sprintf("Workflow: %s", rule.Name),
		Message:      message,
		CreatedAt:    time.Now(),
	}
	if err := e.admin.InsertNotification(ctx, n); err != nil {
		return errors.Wrap(err, "insert notification")
	}

	// Out-of-band channels are best-effort; the persisted record is the
	// source of truth.
	if e.publisher != nil {
		_ = e.publisher.Publish(ctx, kafka.TopicNotifications, s.ID.String(), map[string]interface{}{
			"notification_id": n.ID.String(),
			"suggestion_id":   s.ID.String(),
			"rule_name":       rule.Name,
			"title":           n.Title,
			"message":         n.Message,
		})
	}
	if e.notifier != nil {
		if err := e.notifier.NotifySuggestion(ctx, s, message); err != nil {
			e.log.Warnf("Telegram notification failed for rule %q: %v", rule.Name, err)
		}
	}
	return nil
}

func (e *Evaluator) scheduleReview(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion, action workflow.Action) error {
	delay := action.DelayMinutes
	if delay <= 0 {
		delay = int(toFloat(action.Parameters["delay_minutes"]))
	}
	if delay <= 0 {
		delay = defaultReviewDelayMinutes
	}

	r := &workflow.ReviewSchedule{
		ID:           uuid.New(),
		SuggestionID: s.ID,
		ScheduledFor: time.Now().Add(time.Duration(delay) * time.Minute),
		Note:         fmt.Sprintf("scheduled by workflow rule %q", rule.Name),
		CreatedAt:    time.Now(),
	}
	if err := e.admin.InsertReview(ctx, r); err != nil {
		return errors.Wrap(err, "insert review")
	}
	return nil
}

func (e *Evaluator) createTask(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion, action workflow.Action) error {
	title := toString(action.Parameters["title"])
	if title == "" {
		title = fmt.Sprintf("Review %s suggestion", s.TargetType)
	}
	description := toString(action.Parameters["description"])
	if description == "" {
		description = s.Reasoning
	}

	t := &workflow.AdminTask{
		ID:           uuid.New(),
		SuggestionID: s.ID,
		Title:        title,
		Description:  description,
		Priority:     s.Priority,
		Status:       workflow.TaskOpen,
		CreatedAt:    time.Now(),
	}
	if err := e.admin.InsertTask(ctx, t); err != nil {
		return errors.Wrap(err, "insert task")
	}
	return nil
}
