package service

import "errors"

// Taxonomía cerrada de errores de dominio. Los handlers despachan con
// errors.Is; los errores de infraestructura se loguean y se reemplazan por
// mensajes genéricos en la frontera HTTP.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredCode        = errors.New("verification code expired")
	ErrEmailInUse         = errors.New("email already in use")
	ErrEmailNotInUse      = errors.New("email not found")
	ErrSessionCreate      = errors.New("session creation failed")
	ErrOperationFailed    = errors.New("operation failed")
)
