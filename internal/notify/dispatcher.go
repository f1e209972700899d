// Package notify delivers messages to users and to the operations channel
// through the Telegram Bot API.
package notify

import (
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rookgm/cardpay/internal/metrics"
)

// notification kinds used in metrics
const (
	KindUser       = "user"
	KindOperations = "operations"
	KindRetract    = "retract"
	KindCard       = "card"
)

// Sender is subset of tgbotapi.BotAPI used to deliver messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dispatcher sends notifications. Failures are returned to callers
// and never retried here.
type Dispatcher struct {
	sender  Sender
	metrics *metrics.Metrics
}

// NewDispatcher creates new Dispatcher instance
func NewDispatcher(sender Sender, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, metrics: m}
}

// NotifyUser sends text to user chat
func (d *Dispatcher) NotifyUser(ctx context.Context, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := d.sender.Send(msg); err != nil {
		d.metrics.NotifyFailed(KindUser)
		return err
	}
	return nil
}

// NotifyOperations posts text to operations channel and returns reference of posted message
func (d *Dispatcher) NotifyOperations(ctx context.Context, channelID int64, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(channelID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	sent, err := d.sender.Send(msg)
	if err != nil {
		d.metrics.NotifyFailed(KindOperations)
		return 0, err
	}
	return sent.MessageID, nil
}

// RetractOperations deletes previously posted operations message
func (d *Dispatcher) RetractOperations(ctx context.Context, channelID int64, messageRef int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := d.sender.Request(tgbotapi.NewDeleteMessage(channelID, messageRef)); err != nil {
		d.metrics.NotifyFailed(KindRetract)
		return err
	}
	return nil
}

// SendCard sends rendered card image with caption to user
func (d *Dispatcher) SendCard(ctx context.Context, userID int64, image []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(userID, tgbotapi.FileBytes{Name: "card.png", Bytes: image})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML

	if _, err := d.sender.Send(photo); err != nil {
		d.metrics.NotifyFailed(KindCard)
		return err
	}
	return nil
}
