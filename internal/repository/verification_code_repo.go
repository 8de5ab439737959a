package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"goodsncart-auth/internal/domain"
)

// VerificationCodeRepository define el contrato de persistencia para
// códigos de verificación de un solo uso.
type VerificationCodeRepository interface {
	// Upsert sobreescribe código y expiración de la fila existente para el
	// email, o inserta una nueva. Mantiene la convención de una fila activa
	// por email.
	Upsert(ctx context.Context, code domain.VerificationCode) error
	GetByEmail(ctx context.Context, email string) (domain.VerificationCode, error)
	GetByEmailAndCode(ctx context.Context, email, code string) (domain.VerificationCode, error)
	Delete(ctx context.Context, id string) error
}

// PgVerificationCodeRepository implementa VerificationCodeRepository usando pgxpool.
type PgVerificationCodeRepository struct {
	pool *pgxpool.Pool
}

func NewPgVerificationCodeRepository(pool *pgxpool.Pool) *PgVerificationCodeRepository {
	return &PgVerificationCodeRepository{pool: pool}
}

func (r *PgVerificationCodeRepository) Upsert(ctx context.Context, code domain.VerificationCode) error {
	// email no tiene constraint UNIQUE, por lo que el upsert se resuelve
	// con UPDATE y fallback a INSERT.
	const update = `
		UPDATE app_unique_code
		SET code = $2, expires_at = $3, updated_at = $4
		WHERE email = $1
	`
	tag, err := r.pool.Exec(ctx, update, code.Email, code.Code, code.ExpiresAt, code.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	const insert = `
		INSERT INTO app_unique_code (id, email, code, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err = r.pool.Exec(ctx, insert, code.ID, code.Email, code.Code, code.ExpiresAt, code.CreatedAt)
	return err
}

func (r *PgVerificationCodeRepository) GetByEmail(ctx context.Context, email string) (domain.VerificationCode, error) {
	const query = `
		SELECT id, email, code, expires_at, created_at, updated_at
		FROM app_unique_code
		WHERE email = $1
	`
	var c domain.VerificationCode
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&c.ID,
		&c.Email,
		&c.Code,
		&c.ExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.VerificationCode{}, err
	}
	return c, nil
}

func (r *PgVerificationCodeRepository) GetByEmailAndCode(ctx context.Context, email, code string) (domain.VerificationCode, error) {
	const query = `
		SELECT id, email, code, expires_at, created_at, updated_at
		FROM app_unique_code
		WHERE email = $1 AND code = $2
	`
	var c domain.VerificationCode
	err := r.pool.QueryRow(ctx, query, email, code).Scan(
		&c.ID,
		&c.Email,
		&c.Code,
		&c.ExpiresAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.VerificationCode{}, err
	}
	return c, nil
}

func (r *PgVerificationCodeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM app_unique_code WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
