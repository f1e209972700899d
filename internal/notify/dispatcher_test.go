package notify

import (
	"context"
	"errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	err      error
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestDispatcher_NotifyUser(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, nil)

	require.NoError(t, d.NotifyUser(context.Background(), 42, "hello"))
	require.Len(t, s.sent, 1)

	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.EqualValues(t, 42, msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
}

func TestDispatcher_NotifyOperations_ReturnsRef(t *testing.T) {
	s := &fakeSender{nextID: 99}
	d := NewDispatcher(s, nil)

	ref, err := d.NotifyOperations(context.Background(), -100, "paid")
	require.NoError(t, err)
	assert.Equal(t, 100, ref)
}

func TestDispatcher_RetractOperations(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, nil)

	require.NoError(t, d.RetractOperations(context.Background(), -100, 7))
	require.Len(t, s.requests, 1)

	del, ok := s.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, 7, del.MessageID)
	assert.EqualValues(t, -100, del.ChatID)
}

func TestDispatcher_SendCard(t *testing.T) {
	s := &fakeSender{}
	d := NewDispatcher(s, nil)

	require.NoError(t, d.SendCard(context.Background(), 42, []byte{0x89, 'P', 'N', 'G'}, "caption"))
	require.Len(t, s.sent, 1)

	photo, ok := s.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", photo.Caption)
}

func TestDispatcher_Errors(t *testing.T) {
	s := &fakeSender{err: errors.New("telegram down")}
	d := NewDispatcher(s, nil)
	ctx := context.Background()

	assert.Error(t, d.NotifyUser(ctx, 1, "x"))
	_, err := d.NotifyOperations(ctx, 1, "x")
	assert.Error(t, err)
	assert.Error(t, d.RetractOperations(ctx, 1, 1))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, NewDispatcher(&fakeSender{}, nil).NotifyUser(canceled, 1, "x"), context.Canceled)
}
