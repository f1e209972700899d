package service

import (
	"context"
	"github.com/phedde/luhn-algorithm"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/notify"
	"go.uber.org/zap"
	"strconv"
	"strings"
	"time"
)

// DeliveryNotifier delivers card to user and retracts operations message
type DeliveryNotifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
	SendCard(ctx context.Context, userID int64, image []byte, caption string) error
	RetractOperations(ctx context.Context, channelID int64, messageRef int) error
}

// CardRenderer draws card image
type CardRenderer interface {
	Render(details *models.CardDetails) ([]byte, error)
}

// FulfillmentService progresses card status of paid orders
type FulfillmentService struct {
	repo      OrderRepository
	notifier  DeliveryNotifier
	renderer  CardRenderer
	channelID int64
	now       func() time.Time
}

// NewFulfillmentService creates new FulfillmentService instance
func NewFulfillmentService(repo OrderRepository, notifier DeliveryNotifier, renderer CardRenderer, channelID int64) *FulfillmentService {
	return &FulfillmentService{
		repo:      repo,
		notifier:  notifier,
		renderer:  renderer,
		channelID: channelID,
		now:       time.Now,
	}
}

// UpdateCardStatus advances card status of paid order by one step.
// On delivered the card is sent to user and operations message is retracted.
func (fs *FulfillmentService) UpdateCardStatus(ctx context.Context, orderID string, to models.CardStatus, details *models.CardDetails, by string) (*models.Order, error) {
	if !to.Valid() {
		return nil, models.ErrInvalidCardStatus
	}

	if to == models.CardStatusDelivered {
		if !details.Complete() {
			return nil, models.ErrCardDetailsMissing
		}
		if err := ValidateCardNumber(details.CardNumber); err != nil {
			return nil, err
		}
	} else {
		details = nil
	}

	order, err := fs.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.PaymentStatusPaid {
		return nil, models.ErrOrderNotPaid
	}
	if !order.CardStatus.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}

	now := fs.now()
	changed, err := fs.repo.UpdateCardStatus(ctx, order.ID, order.CardStatus, to, by, now, details)
	if err != nil {
		return nil, err
	}
	if !changed {
		// changed concurrently
		return nil, models.ErrInvalidTransition
	}

	order.CardStatus = to
	order.StatusChangedBy = by
	order.StatusChangedAt = &now
	if details != nil {
		order.CardDetails = details
	}

	logger.Log.Info("card status changed",
		zap.String("order", order.ID),
		zap.String("status", string(to)),
		zap.String("by", by))

	if to == models.CardStatusDelivered {
		fs.deliver(ctx, order)
		fs.retract(ctx, order)
	}

	return order, nil
}

// deliver sends card image, falls back to text when image cannot be produced or sent
func (fs *FulfillmentService) deliver(ctx context.Context, order *models.Order) {
	image, err := fs.renderer.Render(order.CardDetails)
	if err == nil {
		err = fs.notifier.SendCard(ctx, order.UserID, image, notify.DeliveredCaption(order.CardDetails))
		if err == nil {
			return
		}
	}
	logger.Log.Warn("send card image", zap.String("order", order.ID), zap.Error(err))

	if err := fs.notifier.NotifyUser(ctx, order.UserID, notify.DeliveredCaption(order.CardDetails)); err != nil {
		logger.Log.Error("send card details", zap.String("order", order.ID), zap.Error(err))
	}
}

func (fs *FulfillmentService) retract(ctx context.Context, order *models.Order) {
	ref := order.OperationsMessageRef
	if ref == 0 || fs.channelID == 0 {
		return
	}

	cleared, err := fs.repo.ClearOperationsMessage(ctx, order.ID, ref)
	if err != nil {
		logger.Log.Error("clear operations message", zap.String("order", order.ID), zap.Error(err))
		return
	}
	if !cleared {
		return
	}
	order.OperationsMessageRef = 0

	if err := fs.notifier.RetractOperations(ctx, fs.channelID, ref); err != nil {
		logger.Log.Warn("retract operations message", zap.String("order", order.ID), zap.Int("ref", ref), zap.Error(err))
	}
}

// ValidateCardNumber checks card number of up to 19 digits with Luhn algorithm.
// Spaces and dashes are ignored.
func ValidateCardNumber(number string) error {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) < 2 || len(digits) > maxCardDigits || strings.IndexFunc(digits, notDigit) >= 0 {
		return models.ErrInvalidCardNumber
	}

	// payload without check digit always fits int64
	payload, err := strconv.ParseInt(digits[:len(digits)-1], 10, 64)
	if err != nil {
		return models.ErrInvalidCardNumber
	}

	// check card number using Luhn algorithm
	check, err := luhn.CheckDigit(payload)
	if err != nil || check != int(digits[len(digits)-1]-'0') {
		return models.ErrInvalidCardNumber
	}

	return nil
}

const maxCardDigits = 19

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
