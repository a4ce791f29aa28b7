package telegram

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Notifier sends admin notifications through a Telegram bot.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	extraID []int64
	log     *logger.Logger
}

// NewNotifier creates a Telegram notifier. Token and chat ID are required.
func NewNotifier(token string, adminChatID int64, extraAdmins []int64) (*Notifier, error) {
	if token == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram bot token is required")
	}
	if adminChatID == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "telegram admin chat ID is required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}

	return &Notifier{
		bot:     bot,
		chatID:  adminChatID,
		extraID: extraAdmins,
		log:     logger.Get().With("component", "telegram_notifier"),
	}, nil
}

// NotifySuggestion sends a formatted message about a suggestion to all admin chats.
func (n *Notifier) NotifySuggestion(ctx context.Context, s *suggestion.Suggestion, note string) error {
	text := fmt.Sprintf(
		"*%s suggestion* (%s)\nConfidence: %.0f%% | Priority: P%d\nCreated %s\n\n%s",
		s.TargetType, s.AgentType,
		s.ConfidenceScore*100, s.Priority,
		humanize.Time(s.CreatedAt),
		note,
	)
	return n.send(ctx, text)
}

// NotifyText sends a plain admin message.
func (n *Notifier) NotifyText(ctx context.Context, text string) error {
	return n.send(ctx, text)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chats := append([]int64{n.chatID}, n.extraID...)

	var merr errors.MultiError
	for _, chat := range chats {
		msg := tgbotapi.NewMessage(chat, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Errorf("Failed to send telegram message to %d: %v", chat, err)
			merr.Add(errors.Wrapf(errors.ErrExternal, "telegram send to %d: %v", chat, err))
		}
	}

	return merr.ToError()
}
