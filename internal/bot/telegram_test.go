package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vidstat/vidstat/internal/nlq"
)

func TestRunAnswersIncomingMessages(t *testing.T) {
	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "сколько всего видео?",
		Chat: &tgbotapi.Chat{ID: 100},
	}}
	close(updates)

	api := &fakeTelegramAPI{updates: updates}
	compiler := &fakeCompiler{query: nlq.Query{SQL: "SELECT COUNT(*) FROM videos", Intent: "count_all"}}
	service := NewService(compiler, &fakeFetcher{value: 12}, discardLogger(), "telegram")
	b := NewWithAPI(api, service, discardLogger(), Options{})

	// Closed channel terminates Run without cancellation.
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(api.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(api.sent))
	}
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent message type = %T", api.sent[0])
	}
	if msg.ChatID != 100 {
		t.Fatalf("ChatID = %d", msg.ChatID)
	}
	if msg.Text != "12" {
		t.Fatalf("Text = %q", msg.Text)
	}
}

func TestRunIgnoresNonMessageUpdates(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{}
	close(updates)

	api := &fakeTelegramAPI{updates: updates}
	service := NewService(&fakeCompiler{}, &fakeFetcher{}, discardLogger(), "telegram")
	b := NewWithAPI(api, service, discardLogger(), Options{})

	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(api.sent))
	}
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	api := &fakeTelegramAPI{updates: make(chan tgbotapi.Update)}
	service := NewService(&fakeCompiler{}, &fakeFetcher{}, discardLogger(), "telegram")
	b := NewWithAPI(api, service, discardLogger(), Options{PollTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}
	if !api.stopped {
		t.Fatal("expected StopReceivingUpdates to be called")
	}
}

func TestNewRequiresToken(t *testing.T) {
	service := NewService(&fakeCompiler{}, &fakeFetcher{}, discardLogger(), "telegram")
	if _, err := New("", service, discardLogger(), Options{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

type fakeTelegramAPI struct {
	updates chan tgbotapi.Update
	sent    []tgbotapi.Chattable
	stopped bool
}

func (f *fakeTelegramAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegramAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegramAPI) StopReceivingUpdates() {
	f.stopped = true
}
