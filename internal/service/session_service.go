package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/repository"
)

const (
	// Ventana deslizante: una sesión usada al menos una vez por intervalo
	// de refresh vive indefinidamente; sin uso expira a los 30 días.
	sessionRefreshInterval = 15 * 24 * time.Hour
	sessionMaxDuration     = 2 * sessionRefreshInterval
)

// SessionService implementa el ciclo de vida de sesiones: creación,
// validación con expiración perezosa y rotación oportunista, e invalidación.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, users repository.UserRepository) *SessionService {
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		users:    users,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create persiste una sesión nueva para el token crudo dado. El ID almacenado
// es el hash del token; el token en sí nunca toca la base de datos.
func (s *SessionService) Create(ctx context.Context, token, userID string, metadata domain.SessionMetadata) (domain.Session, error) {
	now := s.now()
	session := domain.Session{
		ID:        SessionIDFromToken(token),
		UserID:    userID,
		IPAddress: metadata.IPAddress,
		Location:  metadata.Location,
		Device:    metadata.Device,
		Browser:   metadata.Browser,
		OS:        metadata.OS,
		ExpiresAt: now.Add(sessionMaxDuration),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Validate resuelve el token a (sesión, usuario). Devuelve (nil, nil) si el
// token no corresponde a una sesión, si la sesión expiró (la fila se borra en
// el momento, sin barrido de fondo) o si el usuario dueño ya no existe.
// Dentro de los últimos 15 días de vida, la expiración se extiende a
// now + 30 días en la misma llamada.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	sessionID := SessionIDFromToken(token)

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	now := s.now()
	if !now.Before(session.ExpiresAt) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("expired session cleanup failed", zap.Error(err), zap.String("session_id", sessionID))
		}
		return nil, nil, nil
	}

	user, err := s.users.GetPublicByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Sesión huérfana: la cuenta fue borrada.
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.logger.Warn("orphaned session cleanup failed", zap.Error(delErr), zap.String("session_id", sessionID))
			}
			return nil, nil, nil
		}
		return nil, nil, err
	}

	if !now.Before(session.ExpiresAt.Add(-sessionRefreshInterval)) {
		session.ExpiresAt = now.Add(sessionMaxDuration)
		if err := s.sessions.UpdateExpiry(ctx, sessionID, session.ExpiresAt); err != nil {
			return nil, nil, err
		}
	}

	return &session, &user, nil
}

// Invalidate borra la sesión de forma incondicional.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// InvalidateAll borra todas las sesiones de un usuario. Se usa en eventos
// sensibles de seguridad, como el reset de contraseña.
func (s *SessionService) InvalidateAll(ctx context.Context, userID string) error {
	return s.sessions.DeleteByUser(ctx, userID)
}
