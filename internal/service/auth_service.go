package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/repository"
)

// AuthService compone hasher, códigos de verificación y sesiones en los
// flujos de signup, signin, reset y signout.
type AuthService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	verification *VerificationService
	sessions     *SessionService
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, verification *VerificationService, sessions *SessionService) *AuthService {
	return &AuthService{
		logger:       logger,
		users:        users,
		verification: verification,
		sessions:     sessions,
	}
}

// AuthResult es el resultado de un flujo que termina en sesión. Token es el
// secreto crudo para la cookie; Session ya contiene solo el hash.
type AuthResult struct {
	Token   string
	Session domain.Session
	UserID  string
}

// RequestSignupCode emite un código de verificación para un email todavía no
// registrado. Las dos lecturas independientes (usuario y código existente) se
// despachan en paralelo y se inspeccionan por separado.
func (s *AuthService) RequestSignupCode(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidCredentials
	}

	user, userErr := s.users.GetByEmail(ctx, emailAddr)
	if userErr == nil && user.ID != "" {
		return ErrEmailInUse
	}
	if userErr != nil && !errors.Is(userErr, pgx.ErrNoRows) {
		s.logger.Error("signup code user lookup failed", zap.Error(userErr), zap.String("email", emailAddr))
		return fmt.Errorf("%w: user lookup", ErrOperationFailed)
	}

	return s.verification.Issue(ctx, emailAddr)
}

// SigninStart verifica la contraseña y, si es correcta, emite (o renueva) el
// código de verificación que completa el signin.
func (s *AuthService) SigninStart(ctx context.Context, emailAddr, password string) error {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidCredentials
		}
		s.logger.Error("signin start user lookup failed", zap.Error(err), zap.String("email", emailAddr))
		return fmt.Errorf("%w: user lookup", ErrOperationFailed)
	}
	if !user.HasPassword() {
		s.logger.Warn("signin attempt against passwordless account", zap.String("user_id", user.ID))
		return ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}

	return s.verification.Issue(ctx, emailAddr)
}

// SigninComplete valida código y contraseña, consume el código y crea la
// sesión. El código se borra antes de crear la sesión: nunca es reutilizable,
// aunque la creación posterior falle.
func (s *AuthService) SigninComplete(ctx context.Context, emailAddr, code, password string, metadata domain.SessionMetadata) (AuthResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	password = strings.TrimSpace(password)
	if emailAddr == "" || code == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	lookup := s.lookupUserAndCode(ctx, emailAddr, code)

	if lookup.userErr != nil {
		if errors.Is(lookup.userErr, pgx.ErrNoRows) {
			return AuthResult{}, ErrInvalidCredentials
		}
		s.logger.Error("signin user lookup failed", zap.Error(lookup.userErr), zap.String("email", emailAddr))
		return AuthResult{}, fmt.Errorf("%w: user lookup", ErrOperationFailed)
	}
	if lookup.codeErr != nil {
		if errors.Is(lookup.codeErr, ErrInvalidCredentials) || errors.Is(lookup.codeErr, ErrExpiredCode) {
			return AuthResult{}, lookup.codeErr
		}
		s.logger.Error("signin code lookup failed", zap.Error(lookup.codeErr), zap.String("email", emailAddr))
		return AuthResult{}, fmt.Errorf("%w: code lookup", ErrOperationFailed)
	}

	user := lookup.user
	if !user.HasPassword() {
		s.logger.Warn("signin attempt against passwordless account", zap.String("user_id", user.ID))
		return AuthResult{}, ErrInvalidCredentials
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}

	if err := s.verification.Consume(ctx, lookup.code.ID); err != nil {
		s.logger.Error("signin code consume failed", zap.Error(err), zap.String("code_id", lookup.code.ID))
		return AuthResult{}, fmt.Errorf("%w: consuming code", ErrOperationFailed)
	}

	result, err := s.startSession(ctx, user.ID, metadata)
	if err != nil {
		// El código ya fue consumido; el usuario reinicia desde la emisión.
		s.logger.Error("signin session create failed", zap.Error(err), zap.String("user_id", user.ID))
		return AuthResult{}, ErrSessionCreate
	}
	return result, nil
}

// Signup registra una cuenta nueva tras verificar el código. El borrado del
// código precede a la creación del usuario; si esta última falla el código
// queda consumido y el flujo reinicia desde la emisión (gap de atomicidad
// conocido, se loguea).
func (s *AuthService) Signup(ctx context.Context, emailAddr, code, password string, metadata domain.SessionMetadata) (AuthResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	password = strings.TrimSpace(password)
	if emailAddr == "" || code == "" || password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	lookup := s.lookupUserAndCode(ctx, emailAddr, code)

	if lookup.userErr == nil && lookup.user.ID != "" {
		return AuthResult{}, ErrEmailInUse
	}
	if lookup.userErr != nil && !errors.Is(lookup.userErr, pgx.ErrNoRows) {
		s.logger.Error("signup user lookup failed", zap.Error(lookup.userErr), zap.String("email", emailAddr))
		return AuthResult{}, fmt.Errorf("%w: user lookup", ErrOperationFailed)
	}
	if lookup.codeErr != nil {
		if errors.Is(lookup.codeErr, ErrInvalidCredentials) || errors.Is(lookup.codeErr, ErrExpiredCode) {
			return AuthResult{}, lookup.codeErr
		}
		s.logger.Error("signup code lookup failed", zap.Error(lookup.codeErr), zap.String("email", emailAddr))
		return AuthResult{}, fmt.Errorf("%w: code lookup", ErrOperationFailed)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return AuthResult{}, fmt.Errorf("%w: hashing password", ErrOperationFailed)
	}

	if err := s.verification.Consume(ctx, lookup.code.ID); err != nil {
		s.logger.Error("signup code consume failed", zap.Error(err), zap.String("code_id", lookup.code.ID))
		return AuthResult{}, fmt.Errorf("%w: consuming code", ErrOperationFailed)
	}

	userID, err := NewEntityID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("%w: generating user id", ErrOperationFailed)
	}
	username := generateDisplayName()
	now := s.sessions.now()
	newUser := domain.User{
		ID:            userID,
		Email:         emailAddr,
		Username:      username,
		Avatar:        avatarForName(username),
		PasswordHash:  passwordHash,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return AuthResult{}, ErrEmailInUse
		}
		s.logger.Error("user creation failed after code consumption",
			zap.Error(err),
			zap.String("email", emailAddr),
			zap.String("code_id", lookup.code.ID),
		)
		return AuthResult{}, fmt.Errorf("%w: creating user", ErrOperationFailed)
	}

	result, err := s.startSession(ctx, userID, metadata)
	if err != nil {
		s.logger.Error("signup session create failed", zap.Error(err), zap.String("user_id", userID))
		return AuthResult{}, ErrSessionCreate
	}
	return result, nil
}

// ResetPassword verifica el código, consume y actualiza la contraseña.
// Todas las sesiones del usuario se invalidan tras el cambio.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	newPassword = strings.TrimSpace(newPassword)
	if emailAddr == "" || code == "" || newPassword == "" {
		return ErrInvalidCredentials
	}

	lookup := s.lookupUserAndCode(ctx, emailAddr, code)

	if lookup.userErr != nil {
		if errors.Is(lookup.userErr, pgx.ErrNoRows) {
			return ErrEmailNotInUse
		}
		s.logger.Error("reset user lookup failed", zap.Error(lookup.userErr), zap.String("email", emailAddr))
		return fmt.Errorf("%w: user lookup", ErrOperationFailed)
	}
	if lookup.codeErr != nil {
		if errors.Is(lookup.codeErr, ErrInvalidCredentials) || errors.Is(lookup.codeErr, ErrExpiredCode) {
			return lookup.codeErr
		}
		s.logger.Error("reset code lookup failed", zap.Error(lookup.codeErr), zap.String("email", emailAddr))
		return fmt.Errorf("%w: code lookup", ErrOperationFailed)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return fmt.Errorf("%w: hashing password", ErrOperationFailed)
	}

	if err := s.verification.Consume(ctx, lookup.code.ID); err != nil {
		s.logger.Error("reset code consume failed", zap.Error(err), zap.String("code_id", lookup.code.ID))
		return fmt.Errorf("%w: consuming code", ErrOperationFailed)
	}

	if err := s.users.UpdatePassword(ctx, lookup.user.ID, passwordHash); err != nil {
		s.logger.Error("password update failed after code consumption",
			zap.Error(err),
			zap.String("user_id", lookup.user.ID),
			zap.String("code_id", lookup.code.ID),
		)
		return fmt.Errorf("%w: updating password", ErrOperationFailed)
	}

	if err := s.sessions.InvalidateAll(ctx, lookup.user.ID); err != nil {
		s.logger.Warn("session invalidation after reset failed", zap.Error(err), zap.String("user_id", lookup.user.ID))
	}
	return nil
}

// Signout invalida la sesión asociada al token de la cookie.
func (s *AuthService) Signout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.Invalidate(ctx, SessionIDFromToken(token))
}

func (s *AuthService) startSession(ctx context.Context, userID string, metadata domain.SessionMetadata) (AuthResult, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return AuthResult{}, err
	}
	session, err := s.sessions.Create(ctx, token, userID, metadata)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, Session: session, UserID: userID}, nil
}

// userCodeLookup agrupa los resultados de las dos lecturas independientes;
// cada flujo inspecciona ambos errores por separado en vez de cortar al
// primer rechazo.
type userCodeLookup struct {
	user    domain.User
	userErr error
	code    domain.VerificationCode
	codeErr error
}

func (s *AuthService) lookupUserAndCode(ctx context.Context, emailAddr, code string) userCodeLookup {
	var result userCodeLookup
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.user, result.userErr = s.users.GetByEmail(ctx, emailAddr)
	}()
	go func() {
		defer wg.Done()
		result.code, result.codeErr = s.verification.Verify(ctx, emailAddr, code)
	}()
	wg.Wait()
	return result
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
