package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/sirupsen/logrus"
)

// Bot long-polls telegram and feeds message text into the command handler.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	log     *logrus.Entry
}

func NewBot(token string, handler *Handler) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	api.Buffer = 0
	return &Bot{
		api:     api,
		handler: handler,
		log:     logrus.WithField("component", "telegram"),
	}, nil
}

// Run blocks polling for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("telegram updates channel: %w", err)
	}
	b.log.Infof("telegram bot online as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			userID := int64(update.Message.From.ID)
			reply := b.handler.Handle(ctx, userID, update.Message.Text)
			if reply == "" {
				continue
			}
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
			if _, err := b.api.Send(msg); err != nil {
				b.log.WithError(err).Warn("send telegram reply failed")
			}
		}
	}
}
