package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/email"
	"goodsncart-auth/internal/repository"
)

const verificationCodeTTL = 10 * time.Minute

// VerificationService emite, verifica y consume códigos de un solo uso
// ligados a un email.
type VerificationService struct {
	logger *zap.Logger
	codes  repository.VerificationCodeRepository
	sender email.Sender
	now    func() time.Time
}

func NewVerificationService(logger *zap.Logger, codes repository.VerificationCodeRepository, sender email.Sender) *VerificationService {
	return &VerificationService{
		logger: logger,
		codes:  codes,
		sender: sender,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue genera un código de 6 caracteres con expiración a 10 minutos y lo
// envía por correo. Si ya existe un código para el email se sobreescribe en
// la misma fila. Persistencia y envío corren en paralelo; el fallo de
// cualquiera de los dos se reporta como error genérico reintentable.
func (s *VerificationService) Issue(ctx context.Context, emailAddr string) error {
	code, err := GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("%w: generating code: %v", ErrOperationFailed, err)
	}
	id, err := NewEntityID()
	if err != nil {
		return fmt.Errorf("%w: generating code id: %v", ErrOperationFailed, err)
	}

	now := s.now()
	row := domain.VerificationCode{
		ID:        id,
		Email:     emailAddr,
		Code:      code,
		ExpiresAt: now.Add(verificationCodeTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var storeErr, sendErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		storeErr = s.codes.Upsert(ctx, row)
	}()
	go func() {
		defer wg.Done()
		sendErr = s.sender.SendVerificationCode(ctx, emailAddr, code, row.ExpiresAt)
	}()
	wg.Wait()

	if storeErr != nil || sendErr != nil {
		s.logger.Error("verification code issue failed",
			zap.String("email", emailAddr),
			zap.NamedError("store_err", storeErr),
			zap.NamedError("send_err", sendErr),
		)
		return fmt.Errorf("%w: issuing verification code", ErrOperationFailed)
	}
	return nil
}

// Verify busca el par (email, code) exacto. Código inexistente devuelve
// ErrInvalidCredentials; código expirado dispara su borrado fuera del camino
// crítico y devuelve ErrExpiredCode. Un código válido NO se borra aquí: el
// caller debe consumirlo explícitamente con Consume.
func (s *VerificationService) Verify(ctx context.Context, emailAddr, code string) (domain.VerificationCode, error) {
	row, err := s.codes.GetByEmailAndCode(ctx, emailAddr, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VerificationCode{}, ErrInvalidCredentials
		}
		return domain.VerificationCode{}, err
	}

	if row.Expired(s.now()) {
		// Limpieza fire-and-forget: un código expirado es inerte aunque el
		// borrado falle.
		go func(id, emailAddr string) {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.codes.Delete(cleanupCtx, id); err != nil {
				s.logger.Warn("expired code cleanup failed",
					zap.Error(err),
					zap.String("code_id", id),
					zap.String("email", emailAddr),
				)
			}
		}(row.ID, emailAddr)
		return domain.VerificationCode{}, ErrExpiredCode
	}

	return row, nil
}

// Consume borra un código verificado. Los códigos son de un solo uso: el
// borrado es explícito, no implícito en la lectura.
func (s *VerificationService) Consume(ctx context.Context, id string) error {
	return s.codes.Delete(ctx, id)
}
