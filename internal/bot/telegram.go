package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAPI is the narrow slice of the Telegram client the bot uses,
// extracted so tests can drive the update loop with a fake.
type TelegramAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	StopReceivingUpdates()
}

type Bot struct {
	api            TelegramAPI
	service        *Service
	logger         *slog.Logger
	pollTimeout    time.Duration
	requestTimeout time.Duration
}

type Options struct {
	PollTimeout    time.Duration
	RequestTimeout time.Duration
}

func New(token string, service *Service, logger *slog.Logger, opts Options) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	return NewWithAPI(api, service, logger, opts), nil
}

func NewWithAPI(api TelegramAPI, service *Service, logger *slog.Logger, opts Options) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	return &Bot{
		api:            api,
		service:        service,
		logger:         logger,
		pollTimeout:    opts.PollTimeout,
		requestTimeout: opts.RequestTimeout,
	}
}

// Run consumes long-poll updates until ctx is cancelled or the update
// channel closes.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = int(b.pollTimeout.Seconds())

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.InfoContext(ctx, "telegram bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	requestCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	answer := b.service.Answer(requestCtx, update.Message.Text)

	reply := tgbotapi.NewMessage(update.Message.Chat.ID, answer)
	if _, err := b.api.Send(reply); err != nil {
		b.logger.ErrorContext(ctx, "send reply failed",
			slog.Int64("chat_id", update.Message.Chat.ID),
			slog.String("error", err.Error()),
		)
	}
}
