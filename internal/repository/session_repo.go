package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"goodsncart-auth/internal/domain"
)

// SessionRepository define el contrato de persistencia para sesiones.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO app_session (id, user_id, two_factor_verified, ip_address, location, device, browser, os, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.TwoFactorVerified,
		session.IPAddress,
		session.Location,
		session.Device,
		session.Browser,
		session.OS,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, two_factor_verified, COALESCE(ip_address, ''), COALESCE(location, ''),
		       COALESCE(device, ''), COALESCE(browser, ''), COALESCE(os, ''), expires_at, created_at, updated_at
		FROM app_session
		WHERE id = $1
	`
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.TwoFactorVerified,
		&s.IPAddress,
		&s.Location,
		&s.Device,
		&s.Browser,
		&s.OS,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *PgSessionRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	const query = `
		UPDATE app_session
		SET expires_at = $2, updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, expiresAt, time.Now().UTC())
	return err
}

func (r *PgSessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM app_session WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgSessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM app_session WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}
