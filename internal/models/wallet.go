package models

import "time"

// Wallet is a generated deposit key pair owned by user.
// It is created once per order and never deleted.
type Wallet struct {
	ID         string
	UserID     int64
	Address    string
	PrivateKey string
	CreatedAt  time.Time
}
