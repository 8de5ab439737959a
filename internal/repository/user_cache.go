package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
)

const userCacheTTL = 60 * time.Second

// CachedUserRepository compone una capa de cache read-through sobre un
// UserRepository. Solo cachea la proyección pública (sin hash de contraseña),
// que es la lectura caliente de la validación de sesión. Fallos de redis
// degradan a la base de datos y solo se loguean.
type CachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration
}

func NewCachedUserRepository(inner UserRepository, client *redis.Client, logger *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		inner:  inner,
		client: client,
		logger: logger,
		prefix: "auth:user:public:",
		ttl:    userCacheTTL,
	}
}

func (r *CachedUserRepository) Create(ctx context.Context, user domain.User) error {
	return r.inner.Create(ctx, user)
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.inner.GetByID(ctx, id)
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepository) GetPublicByID(ctx context.Context, id string) (domain.User, error) {
	if r.client != nil {
		if cached, ok := r.lookup(ctx, id); ok {
			return cached, nil
		}
	}

	user, err := r.inner.GetPublicByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if r.client != nil {
		r.store(ctx, user)
	}
	return user, nil
}

func (r *CachedUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := r.inner.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedUserRepository) SetEmailVerified(ctx context.Context, id string) error {
	if err := r.inner.SetEmailVerified(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedUserRepository) lookup(ctx context.Context, id string) (domain.User, bool) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if err != redis.Nil && r.logger != nil {
			r.logger.Warn("user cache lookup failed", zap.Error(err), zap.String("user_id", id))
		}
		return domain.User{}, false
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false
	}
	return user, true
}

func (r *CachedUserRepository) store(ctx context.Context, user domain.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+user.ID, raw, r.ttl).Err(); err != nil && r.logger != nil {
		r.logger.Warn("user cache store failed", zap.Error(err), zap.String("user_id", user.ID))
	}
}

func (r *CachedUserRepository) evict(ctx context.Context, id string) {
	if r.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+id).Err(); err != nil && r.logger != nil {
		r.logger.Warn("user cache evict failed", zap.Error(err), zap.String("user_id", id))
	}
}
