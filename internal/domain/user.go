package domain

import "time"

// UserRole distinguishes requesters from administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User is a requester (or administrator) account. Accounts are created
// without a password; a one-time setup token is emailed instead.
type User struct {
	ID             string
	DNI            string
	FirstName      string
	LastName       string
	Email          string
	Department     *string
	Role           UserRole
	PasswordHash   *string
	ResetToken     *string
	TokenExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FullName returns the display name used in notifications.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ResetTokenValid reports whether token matches the stored one-time token
// and it has not expired.
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == nil || token == "" || *u.ResetToken != token {
		return false
	}
	return u.TokenExpiresAt != nil && now.Before(*u.TokenExpiresAt)
}
