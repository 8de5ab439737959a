package domain

import "time"

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Avatar         string    `json:"avatar,omitempty"`
	PasswordHash   string    `json:"-"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	EmailVerified  bool      `json:"email_verified"`
	Registered2FA  bool      `json:"registered_2fa"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasPassword reporta si la cuenta puede autenticarse con contraseña.
// Cuentas creadas solo via OAuth no guardan hash.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
