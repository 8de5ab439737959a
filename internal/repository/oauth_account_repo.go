package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"goodsncart-auth/internal/domain"
)

// OAuthAccountRepository define el contrato de persistencia para cuentas OAuth.
type OAuthAccountRepository interface {
	// Create es idempotente: bajo (provider, provider_user_id) repetido
	// la inserción no hace nada.
	Create(ctx context.Context, account domain.OAuthAccount) error
	GetByProviderUserID(ctx context.Context, provider, providerUserID string) (domain.OAuthAccount, error)
	GetByUserID(ctx context.Context, userID string) (domain.OAuthAccount, error)
}

// PgOAuthAccountRepository implementa OAuthAccountRepository usando pgxpool.
type PgOAuthAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgOAuthAccountRepository(pool *pgxpool.Pool) *PgOAuthAccountRepository {
	return &PgOAuthAccountRepository{pool: pool}
}

func (r *PgOAuthAccountRepository) Create(ctx context.Context, account domain.OAuthAccount) error {
	const query = `
		INSERT INTO app_oauth_account (id, user_id, provider, provider_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (provider, provider_user_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.UserID,
		account.Provider,
		account.ProviderUserID,
		account.CreatedAt,
	)
	return err
}

func (r *PgOAuthAccountRepository) GetByProviderUserID(ctx context.Context, provider, providerUserID string) (domain.OAuthAccount, error) {
	const query = `
		SELECT id, user_id, provider, provider_user_id, created_at, updated_at
		FROM app_oauth_account
		WHERE provider = $1 AND provider_user_id = $2
	`
	var a domain.OAuthAccount
	err := r.pool.QueryRow(ctx, query, provider, providerUserID).Scan(
		&a.ID,
		&a.UserID,
		&a.Provider,
		&a.ProviderUserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.OAuthAccount{}, err
	}
	return a, nil
}

func (r *PgOAuthAccountRepository) GetByUserID(ctx context.Context, userID string) (domain.OAuthAccount, error) {
	const query = `
		SELECT id, user_id, provider, provider_user_id, created_at, updated_at
		FROM app_oauth_account
		WHERE user_id = $1
	`
	var a domain.OAuthAccount
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Provider,
		&a.ProviderUserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.OAuthAccount{}, err
	}
	return a, nil
}
