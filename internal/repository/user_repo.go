package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"goodsncart-auth/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	// GetPublicByID carga el usuario sin incluir el hash de contraseña
	// en la proyección.
	GetPublicByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetEmailVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO app_user (id, email, username, avatar, password, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.Avatar,
		user.PasswordHash,
		user.EmailVerified,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, email, username, avatar, COALESCE(password, ''), COALESCE(subscription_id, ''),
		       email_verified, registered_2fa, created_at, updated_at
		FROM app_user
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Avatar,
		&u.PasswordHash,
		&u.SubscriptionID,
		&u.EmailVerified,
		&u.Registered2FA,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) GetPublicByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, email, username, avatar, COALESCE(subscription_id, ''),
		       email_verified, registered_2fa, created_at, updated_at
		FROM app_user
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Avatar,
		&u.SubscriptionID,
		&u.EmailVerified,
		&u.Registered2FA,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, username, avatar, COALESCE(password, ''), COALESCE(subscription_id, ''),
		       email_verified, registered_2fa, created_at, updated_at
		FROM app_user
		WHERE email = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Avatar,
		&u.PasswordHash,
		&u.SubscriptionID,
		&u.EmailVerified,
		&u.Registered2FA,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE app_user
		SET password = $2, updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	return err
}

func (r *PgUserRepository) SetEmailVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE app_user
		SET email_verified = TRUE, updated_at = $2
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	return err
}

func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM app_user WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
