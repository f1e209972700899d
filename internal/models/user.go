package models

import "time"

// User is minimal identity of a bot user
type User struct {
	ID          int64
	Username    string
	FirstSeenAt time.Time
}

// DisplayName returns username or fallback built from id
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "N/A"
	}
	return u.Username
}

// admin roles
const (
	AdminRoleNormal = "normal"
	AdminRoleSuper  = "super"
)

// Admin is operator of admin API
type Admin struct {
	ID        string
	Username  string
	Password  string
	Role      string
	CreatedAt time.Time
	LastLogin *time.Time
}

// TokenPayload is payload of admin auth token
type TokenPayload struct {
	AdminID  string
	Username string
	Role     string
}
