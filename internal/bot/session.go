package bot

import (
	"fmt"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/rookgm/cardpay/internal/service"
	"github.com/shopspring/decimal"
	"html"
	"strings"
	"sync"
)

// skipPhone is accepted instead of phone number for anonymous cards
const skipPhone = "-"

type step int

// intake steps
const (
	stepIdle step = iota
	stepAmount
	stepCustomAmount
	stepFirstName
	stepLastName
	stepEmail
	stepPhone
	stepConfirm
)

// draft is order being collected from user
type draft struct {
	Type   models.CardType
	Amount decimal.Decimal
	Inputs models.Inputs
}

type session struct {
	step  step
	draft draft
}

// reply is what bot answers to user input.
// Empty text means input is ignored.
type reply struct {
	text    string
	confirm bool
}

// chooseType starts new draft of card type
func (s *session) chooseType(t models.CardType) {
	*s = session{step: stepAmount, draft: draft{Type: t}}
}

// chooseAmount sets preset amount. Returns false if there is no draft.
func (s *session) chooseAmount(amount decimal.Decimal) bool {
	if s.step != stepAmount && s.step != stepCustomAmount {
		return false
	}
	s.draft.Amount = amount
	s.step = stepFirstName
	return true
}

// chooseCustomAmount asks user to type amount. Returns false if there is no draft.
func (s *session) chooseCustomAmount() bool {
	if s.step != stepAmount && s.step != stepCustomAmount {
		return false
	}
	s.step = stepCustomAmount
	return true
}

// advance consumes text typed by user at current step
func (s *session) advance(text string, settings service.OrderSettings) reply {
	text = strings.TrimSpace(text)

	switch s.step {
	case stepCustomAmount:
		amount, err := decimal.NewFromString(text)
		if err != nil || service.ValidateAmount(amount, settings.MinAmount, settings.Token.Decimals) != nil {
			return reply{text: fmt.Sprintf("❗ Invalid amount. Please enter a number of at least %s USDT:", settings.MinAmount)}
		}
		s.draft.Amount = amount
		s.step = stepFirstName
		return reply{text: amountChosenMessage(amount)}

	case stepFirstName:
		if service.ValidateName(text) != nil {
			return reply{text: "❗ Please enter your <b>First name</b>:"}
		}
		s.draft.Inputs.FirstName = text
		s.step = stepLastName
		return reply{text: "Enter your <b>Last name</b>:"}

	case stepLastName:
		if service.ValidateName(text) != nil {
			return reply{text: "❗ Please enter your <b>Last name</b>:"}
		}
		s.draft.Inputs.LastName = text
		s.step = stepEmail
		return reply{text: "You will receive <b>PIN</b> on this email. Make sure your email is correct.\n\nEnter your <b>Email</b>:"}

	case stepEmail:
		if service.ValidateEmail(text) != nil {
			return reply{text: "❗ That doesn't look like an email. Please re-enter your <b>Email</b>:"}
		}
		s.draft.Inputs.Email = text
		s.step = stepPhone
		if s.draft.Type == models.CardTypeAnonymous {
			return reply{text: "Enter your <b>Phone number</b> (with country code), or send <code>-</code> to skip:"}
		}
		return reply{text: "Enter your <b>Phone number</b> (with country code):"}

	case stepPhone:
		if s.draft.Type == models.CardTypeAnonymous && text == skipPhone {
			text = ""
		} else if service.ValidatePhone(text) != nil {
			return reply{text: "❗ Invalid phone number. Please enter a valid phone number with country code (e.g., +1234567890):"}
		}
		s.draft.Inputs.Phone = text
		s.step = stepConfirm
		return reply{text: confirmationMessage(s.draft, settings.Fee), confirm: true}
	}

	return reply{}
}

// request returns order request built from complete draft
func (s *session) request(userID int64) (service.CreateOrderRequest, bool) {
	if s.step != stepConfirm {
		return service.CreateOrderRequest{}, false
	}
	return service.CreateOrderRequest{
		UserID: userID,
		Type:   s.draft.Type,
		Inputs: s.draft.Inputs,
		Amount: s.draft.Amount,
	}, true
}

func amountChosenMessage(amount decimal.Decimal) string {
	return fmt.Sprintf("Amount: <b>%s USDT</b>\n\nEnter your <b>First name</b>:", amount)
}

func confirmationMessage(d draft, fee decimal.Decimal) string {
	lines := []string{
		"📋 <b>Please confirm your order:</b>",
		"",
		fmt.Sprintf("Name: <b>%s</b>", html.EscapeString(d.Inputs.FullName())),
		fmt.Sprintf("Email: <b>%s</b>", html.EscapeString(d.Inputs.Email)),
	}
	if d.Inputs.Phone != "" {
		lines = append(lines, fmt.Sprintf("Number: <b>%s</b>", html.EscapeString(d.Inputs.Phone)))
	}
	lines = append(lines,
		fmt.Sprintf("Balance Amount: <b>%s USDT</b>", d.Amount),
		fmt.Sprintf("Card Creation Fee: <b>%s USDT</b>", fee),
		"",
		fmt.Sprintf("💰 <b>Total: %s USDT</b>", d.Amount.Add(fee)),
		"",
		"Do you want to proceed?",
	)
	return strings.Join(lines, "\n")
}

// sessions keeps intake state per user
type sessions struct {
	mu sync.Mutex
	m  map[int64]*session
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]*session)}
}

// update runs fn on session of user under lock
func (ss *sessions) update(userID int64, fn func(s *session)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.m[userID]
	if !ok {
		s = &session{}
		ss.m[userID] = s
	}
	fn(s)
	if s.step == stepIdle {
		delete(ss.m, userID)
	}
}

// reset drops session of user
func (ss *sessions) reset(userID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	delete(ss.m, userID)
}
