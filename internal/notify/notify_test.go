package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/video_catalog/internal/events"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.err
}

type fakePublisher struct {
	topic string
	key   string
	event any
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.topic, p.key, p.event = topic, key, event
	return nil
}

type errAlerter struct{ err error }

func (a errAlerter) Alert(context.Context, string) error { return a.err }

func TestTelegram_Alert(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	tg := &Telegram{api: s, chatID: 42}

	require.NoError(t, tg.Alert(context.Background(), "keys exhausted"))
	require.Len(t, s.sent, 1)
	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Equal(t, "keys exhausted", msg.Text)

	s.err = errors.New("network down")
	assert.Error(t, tg.Alert(context.Background(), "again"))
}

func TestNewTelegram_RequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := NewTelegram("", 1)
	assert.Error(t, err)
	_, err = NewTelegram("token", 0)
	assert.Error(t, err)
}

func TestKafka_Alert(t *testing.T) {
	t.Parallel()

	p := &fakePublisher{}
	k := &Kafka{Publisher: p, Source: "video_catalog"}

	require.NoError(t, k.Alert(context.Background(), "hello"))
	assert.Equal(t, events.TopicOpsAlerts, p.topic)
	assert.Equal(t, "video_catalog", p.key)
	ev, ok := p.event.(alertEvent)
	require.True(t, ok)
	assert.Equal(t, "hello", ev.Message)
	assert.Equal(t, events.TypeOpsAlert, ev.Type)
}

func TestMulti_Alert(t *testing.T) {
	t.Parallel()

	s := &fakeSender{}
	boom := errors.New("boom")
	m := Multi{&Telegram{api: s, chatID: 1}, nil, errAlerter{err: boom}, Nop{}}

	err := m.Alert(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.sent, 1)

	assert.NoError(t, Multi{}.Alert(context.Background(), "x"))
}
