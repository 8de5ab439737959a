package domain

import "time"

// OAuthAccount vincula un usuario local con una identidad externa.
// (provider, provider_user_id) es único a nivel de esquema.
type OAuthAccount struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
