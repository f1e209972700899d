package notify

import (
	"fmt"
	"github.com/rookgm/cardpay/internal/models"
	"html"
	"strings"
	"time"
)

// ExpiredMessage is sent to user when payment window of order elapsed
func ExpiredMessage(window time.Duration) string {
	return fmt.Sprintf("⏰ Payment window (%d minutes) expired. Please start over with /start.", int(window.Minutes()))
}

// PaidMessage is sent to user when payment of order is confirmed
func PaidMessage() string {
	return strings.Join([]string{
		"✅ <b>Payment Confirmed!</b>",
		"",
		"Thank you for your payment. Your card request has been successfully confirmed.",
		"",
		"🎴 Your virtual card will be created and sent to you within <b>20 minutes</b>.",
		"",
		"We appreciate your patience!",
	}, "\n")
}

// OperationsMessage is posted to operations channel when order is paid
func OperationsMessage(order *models.Order, user *models.User) string {
	lines := []string{
		"🎴 <b>New Order Paid!</b>",
		"",
		fmt.Sprintf("👤 User: @%s (ID: %d)", html.EscapeString(user.DisplayName()), order.UserID),
		fmt.Sprintf("📝 Name: <b>%s</b>", html.EscapeString(order.Inputs.FullName())),
		fmt.Sprintf("📧 Email: %s", html.EscapeString(order.Inputs.Email)),
	}
	if order.Inputs.Phone != "" {
		lines = append(lines, fmt.Sprintf("📱 Phone: %s", html.EscapeString(order.Inputs.Phone)))
	}
	lines = append(lines,
		fmt.Sprintf("💳 Card Type: <b>%s</b>", order.Type.Title()),
		fmt.Sprintf("💰 Amount: <b>%s USDT</b>", order.Amount.String()),
		fmt.Sprintf("🏦 Wallet: <code>%s</code>", order.WalletAddress),
		"📊 Status: <b>In Process</b>",
		"",
		fmt.Sprintf("🆔 Order ID: <code>%s</code>", order.ID),
	)

	return strings.Join(lines, "\n")
}

// OrderCreatedMessage gives user payment instructions for new order
func OrderCreatedMessage(order *models.Order, window time.Duration) string {
	return strings.Join([]string{
		"🧾 <b>Order created!</b>",
		fmt.Sprintf("Type: <b>%s Card</b>", order.Type.Title()),
		fmt.Sprintf("Amount: <b>%s USDT</b>", order.Amount.String()),
		"",
		fmt.Sprintf("Please pay <b>%s USDT (TRC-20)</b> to this address within <b>%d minutes</b>:",
			order.Amount.String(), int(window.Minutes())),
		fmt.Sprintf("<code>%s</code>", order.WalletAddress),
		"",
		"<i>Once paid, you'll automatically receive a success message.</i>",
		"If the timer runs out, the order expires and you'll need to /start again.",
	}, "\n")
}

// DeliveredCaption is caption of card image sent on delivery
func DeliveredCaption(details *models.CardDetails) string {
	return strings.Join([]string{
		"🎉 <b>Your Virtual Card is Ready!</b>",
		"",
		"💳 <b>Card Details:</b>",
		"",
		fmt.Sprintf("Card Number: <code>%s</code>", html.EscapeString(details.CardNumber)),
		fmt.Sprintf("Card Name: <b>%s</b>", html.EscapeString(details.CardName)),
		fmt.Sprintf("Expiry Date: <code>%s</code>", html.EscapeString(details.ExpiryDate)),
		fmt.Sprintf("CVV: <code>%s</code>", html.EscapeString(details.CVV)),
		"",
		"⚠️ <b>Important Security Information:</b>",
		"• Keep these details secure and confidential",
		"• Do not share your CVV with anyone",
		"• You can start using your card immediately",
		"• Save the card image for easy reference",
	}, "\n")
}

// CardDetailsMessage describes delivered card of order
func CardDetailsMessage(order *models.Order) string {
	cd := order.CardDetails
	if cd == nil {
		cd = &models.CardDetails{}
	}

	lines := []string{
		"💳 <b>Card Details</b>",
		"",
		fmt.Sprintf("👤 <b>Card Holder:</b> %s", html.EscapeString(cd.CardName)),
		fmt.Sprintf("🔢 <b>Card Number:</b> <code>%s</code>", html.EscapeString(cd.CardNumber)),
		fmt.Sprintf("📅 <b>Expiry Date:</b> <code>%s</code>", html.EscapeString(cd.ExpiryDate)),
		fmt.Sprintf("🔐 <b>CVV:</b> <code>%s</code>", html.EscapeString(cd.CVV)),
		"",
		"💰 <b>Card Information:</b>",
		fmt.Sprintf("• Card Type: %s", order.Type.Title()),
		fmt.Sprintf("• Card Amount: <b>%s USDT</b>", order.Amount.String()),
		fmt.Sprintf("• Created: %s", order.CreatedAt.Format("2006-01-02")),
	}
	if order.StatusChangedAt != nil {
		lines = append(lines, fmt.Sprintf("• Delivered: %s", order.StatusChangedAt.Format("2006-01-02")))
	}
	lines = append(lines, "", fmt.Sprintf("🆔 Order ID: <code>%s</code>", order.ID))

	return strings.Join(lines, "\n")
}

// StatusMessage reports state of order at now
func StatusMessage(order *models.Order, now time.Time) string {
	lines := []string{
		fmt.Sprintf("Payment Status: <b>%s</b>", strings.ToUpper(string(order.Status))),
		fmt.Sprintf("Card Status: <b>%s</b>", strings.ToUpper(string(order.CardStatus))),
		fmt.Sprintf("Type: %s", order.Type),
		fmt.Sprintf("Amount: <b>%s USDT</b>", order.Amount.String()),
		fmt.Sprintf("Wallet: <code>%s</code>", order.WalletAddress),
	}
	if order.Status == models.PaymentStatusPending {
		lines = append(lines, fmt.Sprintf("Time left: ~%d min", MinutesLeft(order.ExpiresAt, now)))
	}
	return strings.Join(lines, "\n")
}

// MinutesLeft returns whole minutes until deadline rounded up, never negative
func MinutesLeft(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Minute - 1) / time.Minute)
}
