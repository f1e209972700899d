package bot

import (
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rookgm/cardpay/internal/models"
	"html"
	"strings"
)

// callback data
const (
	cbNewCard       = "NEW_CARD"
	cbCardList      = "CARD_LIST"
	cbBackHome      = "BACK_HOME"
	cbTypeAnonymous = "TYPE_ANON"
	cbTypeNormal    = "TYPE_NORMAL"
	cbAmountPrefix  = "AMOUNT_"
	cbAmountCustom  = "AMOUNT_CUSTOM"
	cbConfirmYes    = "CONFIRM_YES"
	cbConfirmCancel = "CONFIRM_CANCEL"
	cbPagePrefix    = "CARDS_PAGE_"
	cbPageCurrent   = "CARDS_CURRENT"
	cbViewPrefix    = "VIEW_CARD_"
	cbResendPrefix  = "RESEND_CARD_"
)

const cardsPageSize = 5

var presetAmounts = []string{"15", "30", "50", "100"}

const welcomeText = "Welcome to the card bot.\nChoose an option:"

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 New Card", cbNewCard),
			tgbotapi.NewInlineKeyboardButtonData("🧾 Card List", cbCardList),
		),
	)
}

func cardTypeMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🕶️ Anonymous", cbTypeAnonymous),
			tgbotapi.NewInlineKeyboardButtonData("👤 Normal", cbTypeNormal),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBackHome),
		),
	)
}

func amountMenu() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(presetAmounts))
	for _, a := range presetAmounts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a+" USDT", cbAmountPrefix+a))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Custom amount", cbAmountCustom),
		),
	)
}

func confirmationMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", cbConfirmYes),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cbConfirmCancel),
		),
	)
}

func backToListMenu(orderID string, resend bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if resend {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Resend Card Image", cbResendPrefix+orderID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to Card List", cbCardList),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// cardList returns text and keyboard of one page of user orders
func cardList(orders []models.Order, page int, total int64) (string, tgbotapi.InlineKeyboardMarkup) {
	if total == 0 {
		return "🧾 <b>Card List</b>\n\nYou don't have any cards yet.\n\nClick <b>💳 New Card</b> to create your first virtual card!", mainMenu()
	}

	totalPages := int((total + cardsPageSize - 1) / cardsPageSize)
	offset := (page - 1) * cardsPageSize

	lines := []string{"🧾 <b>Your Card List</b>", ""}
	var buttons []tgbotapi.InlineKeyboardButton

	for i, o := range orders {
		n := offset + i + 1
		lines = append(lines, fmt.Sprintf("%d. %s Card · %s · %s USDT · %s",
			n, o.Type.Title(), html.EscapeString(o.Inputs.FullName()), o.Amount, cardState(&o)))

		if o.CardStatus == models.CardStatusDelivered && o.CardDetails != nil {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🔍 Card %d", n), cbViewPrefix+o.ID))
		}
	}
	lines = append(lines, "", fmt.Sprintf("Page %d of %d", page, totalPages))

	var rows [][]tgbotapi.InlineKeyboardButton
	// two view buttons per row
	for i := 0; i < len(buttons); i += 2 {
		end := min(i+2, len(buttons))
		rows = append(rows, buttons[i:end])
	}

	if totalPages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Prev", fmt.Sprintf("%s%d", cbPagePrefix, page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page, totalPages), cbPageCurrent))
		if page < totalPages {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", fmt.Sprintf("%s%d", cbPagePrefix, page+1)))
		}
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbCardList),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBackHome),
	))

	return strings.Join(lines, "\n"), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cardState(o *models.Order) string {
	switch {
	case o.Status == models.PaymentStatusPending:
		return "⏳ awaiting payment"
	case o.Status == models.PaymentStatusExpired:
		return "⌛ expired"
	case o.CardStatus == models.CardStatusDelivered:
		return "✅ delivered"
	default:
		return "🛠 in process"
	}
}
