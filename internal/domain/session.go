package domain

import "time"

// Session persiste el hash del token de sesión, nunca el token crudo.
// El campo ID es hex(SHA-256(token)).
type Session struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	TwoFactorVerified bool      `json:"two_factor_verified"`
	IPAddress         string    `json:"ip_address,omitempty"`
	Location          string    `json:"location,omitempty"`
	Device            string    `json:"device,omitempty"`
	Browser           string    `json:"browser,omitempty"`
	OS                string    `json:"os,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SessionMetadata captura datos del request que originó la sesión.
type SessionMetadata struct {
	IPAddress string `json:"ip_address"`
	Location  string `json:"location"`
	Device    string `json:"device"`
	Browser   string `json:"browser"`
	OS        string `json:"os"`
}
