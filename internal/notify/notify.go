// Package notify sends operational alerts to the people running the service.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/video_catalog/internal/events"
)

// Alerter delivers a short text message out of band.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

// sender is the part of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram: token and chat id are required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Alert(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, message)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send failed: %w", err)
	}
	return nil
}

// Kafka publishes alerts to the ops topic so other consumers can pick them up.
type Kafka struct {
	Publisher events.Publisher
	Source    string
}

type alertEvent struct {
	Type    string    `json:"type"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func (k *Kafka) Alert(ctx context.Context, message string) error {
	ev := alertEvent{Type: events.TypeOpsAlert, Source: k.Source, Message: message, At: time.Now().UTC()}
	return k.Publisher.PublishEvent(ctx, events.TopicOpsAlerts, k.Source, ev)
}

// Multi fans an alert out to every channel and joins their errors.
type Multi []Alerter

func (m Multi) Alert(ctx context.Context, message string) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Alert(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Alert(context.Context, string) error { return nil }
