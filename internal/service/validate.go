package service

import (
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?\d{10,15}$`)
	// separators allowed inside phone numbers
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// ValidateEmail checks email has user, domain and tld parts
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return models.ErrInvalidEmail
	}
	return nil
}

// ValidatePhone checks phone has 10 to 15 digits with optional leading plus.
// Spaces, dashes and parentheses are ignored.
func ValidatePhone(phone string) error {
	if !phoneRe.MatchString(phoneSeparators.Replace(phone)) {
		return models.ErrInvalidPhone
	}
	return nil
}

// maxAmount bounds amounts so that totals fit NUMERIC(24,6) and Decimal128
var maxAmount = decimal.New(1, 12)

// ValidateAmount checks amount is at least min, below maxAmount and
// has no more fractional digits than the token.
func ValidateAmount(amount, min decimal.Decimal, decimals int32) error {
	if amount.LessThan(min) || !amount.LessThan(maxAmount) {
		return models.ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(decimals)) {
		return models.ErrInvalidAmount
	}
	return nil
}

// ValidateName checks name is not blank
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return models.ErrInvalidName
	}
	return nil
}

// ValidateInputs checks intake fields for card type
func ValidateInputs(cardType models.CardType, in models.Inputs) error {
	if !cardType.Valid() {
		return models.ErrInvalidCardType
	}
	if err := ValidateName(in.FirstName); err != nil {
		return err
	}
	if err := ValidateName(in.LastName); err != nil {
		return err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if in.Phone == "" && cardType == models.CardTypeAnonymous {
		return nil
	}
	return ValidatePhone(in.Phone)
}
