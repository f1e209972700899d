package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrDataNotFound       = errors.New("data not found")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInternalError      = errors.New("internal error")
	ErrInvalidCardType    = errors.New("invalid card type")
	ErrInvalidAmount      = errors.New("amount is below minimum")
	ErrInvalidName        = errors.New("first and last name are required")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidCardStatus  = errors.New("invalid card status")
	ErrInvalidTransition  = errors.New("card status cannot change from current state")
	ErrCardDetailsMissing = errors.New("card details are required for delivered status")
	ErrInvalidCardNumber  = errors.New("invalid card number")
	ErrOrderNotPaid       = errors.New("order is not paid")
	ErrCircuitOpen        = errors.New("ledger unavailable")
)

// TooManyRequestsError is returned when remote ledger limits request rate
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

// NewTooManyRequestsError creates new TooManyRequestsError
func NewTooManyRequestsError(retryAfter time.Duration) error {
	return &TooManyRequestsError{RetryAfter: retryAfter}
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}
