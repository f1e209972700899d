// Package bot implements Telegram order intake flow.
package bot

import (
	"context"
	"errors"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/notify"
	"github.com/rookgm/cardpay/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"
)

const updateTimeout = 60

// API is subset of tgbotapi.BotAPI used by bot
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// OrderService is interface for order intake
type OrderService interface {
	Settings() service.OrderSettings
	Create(ctx context.Context, req service.CreateOrderRequest) (*models.Order, error)
	LastUserOrder(ctx context.Context, userID int64) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID int64, page, pageSize int) ([]models.Order, int64, error)
	DeliveredCard(ctx context.Context, userID int64, orderID string) (*models.Order, error)
}

// UserService registers bot users
type UserService interface {
	Register(ctx context.Context, id int64, username string) error
}

// CardRenderer draws card image
type CardRenderer interface {
	Render(details *models.CardDetails) ([]byte, error)
}

// CardSender sends card image to user
type CardSender interface {
	SendCard(ctx context.Context, userID int64, image []byte, caption string) error
}

// Bot handles updates of Telegram bot
type Bot struct {
	api      API
	orders   OrderService
	users    UserService
	renderer CardRenderer
	cards    CardSender
	sessions *sessions
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates new Bot instance
func New(api API, orders OrderService, users UserService, renderer CardRenderer, cards CardSender) *Bot {
	return &Bot{
		api:      api,
		orders:   orders,
		users:    users,
		renderer: renderer,
		cards:    cards,
		sessions: newSessions(),
		now:      time.Now,
	}
}

// Run receives updates until ctx is done. Each update is handled in its own goroutine.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	updates := b.api.GetUpdatesChan(u)

	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			if err := b.users.Register(ctx, userID, msg.From.UserName); err != nil {
				logger.Log.Error("register user", zap.Int64("user", userID), zap.Error(err))
			}
			b.sessions.reset(userID)
			b.reply(chatID, welcomeText, mainMenu())
		case "status":
			b.status(ctx, chatID, userID)
		}
		return
	}

	var r reply
	settings := b.orders.Settings()
	b.sessions.update(userID, func(s *session) {
		r = s.advance(msg.Text, settings)
	})

	if r.text == "" {
		return
	}
	if r.confirm {
		b.reply(chatID, r.text, confirmationMenu())
		return
	}
	b.reply(chatID, r.text, nil)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}

	answer := ""
	if cb.Data == cbPageCurrent {
		answer = "You are on this page"
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, answer)); err != nil {
		logger.Log.Debug("answer callback", zap.Error(err))
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	switch data := cb.Data; {
	case data == cbBackHome:
		b.sessions.reset(userID)
		b.edit(chatID, msgID, welcomeText, mainMenu())

	case data == cbNewCard:
		b.edit(chatID, msgID, "Choose card type:", cardTypeMenu())

	case data == cbTypeAnonymous, data == cbTypeNormal:
		t := models.CardTypeNormal
		if data == cbTypeAnonymous {
			t = models.CardTypeAnonymous
		}
		b.sessions.update(userID, func(s *session) { s.chooseType(t) })
		b.edit(chatID, msgID, fmt.Sprintf("%s Card\n\nSelect the amount you want to pay:", t.Title()), amountMenu())

	case data == cbAmountCustom:
		var ok bool
		b.sessions.update(userID, func(s *session) { ok = s.chooseCustomAmount() })
		if !ok {
			b.sessionExpired(chatID)
			return
		}
		minAmount := b.orders.Settings().MinAmount
		b.edit(chatID, msgID, fmt.Sprintf("✏️ Enter custom amount in USDT (minimum %s USDT):", minAmount))

	case strings.HasPrefix(data, cbAmountPrefix):
		amount, err := decimal.NewFromString(strings.TrimPrefix(data, cbAmountPrefix))
		if err != nil {
			return
		}
		var ok bool
		b.sessions.update(userID, func(s *session) { ok = s.chooseAmount(amount) })
		if !ok {
			b.sessionExpired(chatID)
			return
		}
		b.edit(chatID, msgID, amountChosenMessage(amount))

	case data == cbConfirmYes:
		b.confirm(ctx, chatID, userID)

	case data == cbConfirmCancel:
		b.sessions.reset(userID)
		b.reply(chatID, "❌ <b>Order Cancelled</b>\n\nYour order has been cancelled. "+
			"Feel free to start a new order anytime by using /start.", nil)

	case data == cbCardList:
		b.cardList(ctx, chatID, msgID, userID, 1)

	case strings.HasPrefix(data, cbPagePrefix):
		page, err := strconv.Atoi(strings.TrimPrefix(data, cbPagePrefix))
		if err != nil || page < 1 {
			return
		}
		b.cardList(ctx, chatID, msgID, userID, page)

	case strings.HasPrefix(data, cbViewPrefix):
		b.viewCard(ctx, chatID, userID, strings.TrimPrefix(data, cbViewPrefix))

	case strings.HasPrefix(data, cbResendPrefix):
		b.resendCard(ctx, chatID, userID, strings.TrimPrefix(data, cbResendPrefix))
	}
}

// confirm creates order from confirmed draft and sends payment instructions
func (b *Bot) confirm(ctx context.Context, chatID, userID int64) {
	var (
		req service.CreateOrderRequest
		ok  bool
	)
	b.sessions.update(userID, func(s *session) {
		if req, ok = s.request(userID); ok {
			*s = session{}
		}
	})
	if !ok {
		b.sessionExpired(chatID)
		return
	}

	order, err := b.orders.Create(ctx, req)
	if err != nil {
		if isValidationError(err) {
			b.reply(chatID, "❗ "+html.EscapeString(err.Error())+"\n\nPlease start over with /start.", nil)
			return
		}
		logger.Log.Error("create order", zap.Int64("user", userID), zap.Error(err))
		b.reply(chatID, "❌ Error creating order. Please try again with /start.", nil)
		return
	}

	b.reply(chatID, notify.OrderCreatedMessage(order, b.orders.Settings().Window), nil)
}

func (b *Bot) status(ctx context.Context, chatID, userID int64) {
	order, err := b.orders.LastUserOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			b.reply(chatID, "No orders found. Use /start to create one.", nil)
			return
		}
		logger.Log.Error("get last order", zap.Int64("user", userID), zap.Error(err))
		b.reply(chatID, "❌ Error loading your order. Please try again.", nil)
		return
	}

	b.reply(chatID, notify.StatusMessage(order, b.now()), nil)
}

func (b *Bot) cardList(ctx context.Context, chatID int64, msgID int, userID int64, page int) {
	orders, total, err := b.orders.ListUserOrders(ctx, userID, page, cardsPageSize)
	if err != nil {
		logger.Log.Error("list user orders", zap.Int64("user", userID), zap.Error(err))
		b.reply(chatID, "❌ Error loading your card list. Please try again.", mainMenu())
		return
	}

	text, markup := cardList(orders, page, total)
	b.edit(chatID, msgID, text, markup)
}

func (b *Bot) viewCard(ctx context.Context, chatID, userID int64, orderID string) {
	order, ok := b.deliveredCard(ctx, chatID, userID, orderID)
	if !ok {
		return
	}

	sent := b.sendCardImage(ctx, userID, order)

	text := notify.CardDetailsMessage(order)
	if !sent {
		text += "\n\n<i>Note: Card image could not be generated. Above are your card details.</i>"
	}
	b.reply(chatID, text, backToListMenu(order.ID, sent))
}

func (b *Bot) resendCard(ctx context.Context, chatID, userID int64, orderID string) {
	order, ok := b.deliveredCard(ctx, chatID, userID, orderID)
	if !ok {
		return
	}

	if !b.sendCardImage(ctx, userID, order) {
		b.reply(chatID, "❌ Error sending card image. Please try again.", nil)
	}
}

func (b *Bot) deliveredCard(ctx context.Context, chatID, userID int64, orderID string) (*models.Order, bool) {
	order, err := b.orders.DeliveredCard(ctx, userID, orderID)
	if err != nil {
		if !errors.Is(err, models.ErrDataNotFound) {
			logger.Log.Error("get delivered card", zap.String("order", orderID), zap.Error(err))
		}
		b.reply(chatID, "❌ Card details not found or card not yet delivered.", mainMenu())
		return nil, false
	}
	return order, true
}

func (b *Bot) sendCardImage(ctx context.Context, userID int64, order *models.Order) bool {
	image, err := b.renderer.Render(order.CardDetails)
	if err != nil {
		logger.Log.Error("render card", zap.String("order", order.ID), zap.Error(err))
		return false
	}

	caption := fmt.Sprintf("💳 <b>Your Virtual Card</b>\n\nCard for: <b>%s</b>", html.EscapeString(order.Inputs.FullName()))
	if err := b.cards.SendCard(ctx, userID, image, caption); err != nil {
		logger.Log.Error("send card", zap.String("order", order.ID), zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) sessionExpired(chatID int64) {
	b.reply(chatID, "❗ Session expired. Please start over with /start", nil)
}

// reply sends HTML message, markup may be nil
func (b *Bot) reply(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Log.Error("send message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// edit replaces text and keyboard of message, keyboard is removed when markup is omitted
func (b *Bot) edit(chatID int64, msgID int, text string, markup ...tgbotapi.InlineKeyboardMarkup) {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	if len(markup) > 0 {
		cfg.ReplyMarkup = &markup[0]
	}

	if _, err := b.api.Request(cfg); err != nil {
		// user pressed the same button twice
		if strings.Contains(err.Error(), "message is not modified") {
			return
		}
		logger.Log.Error("edit message", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		models.ErrInvalidCardType,
		models.ErrInvalidAmount,
		models.ErrInvalidName,
		models.ErrInvalidEmail,
		models.ErrInvalidPhone,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
