package domain

import "time"

// Technician models a support technician. Profile is the legacy technical
// tag; AreaID links the technician into the area model. Both are optional
// and combined only by the distribution precedence rules.
type Technician struct {
	ID             string
	DNI            string
	Name           string
	Email          string
	Profile        *string
	AreaID         *string
	PasswordHash   *string
	ResetToken     *string
	TokenExpiresAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ResetTokenValid reports whether token matches the stored one-time token
// and it has not expired.
func (t *Technician) ResetTokenValid(token string, now time.Time) bool {
	if t.ResetToken == nil || token == "" || *t.ResetToken != token {
		return false
	}
	return t.TokenExpiresAt != nil && now.Before(*t.TokenExpiresAt)
}
