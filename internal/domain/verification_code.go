package domain

import "time"

// VerificationCode es un código de 6 caracteres ligado a un email,
// de un solo uso. Por convención existe a lo sumo una fila activa por email.
type VerificationCode struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reporta si el código ya no es verificable en el instante dado.
func (c VerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
