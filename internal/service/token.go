package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
)

const (
	// Alfabeto del código de verificación (64 símbolos, un byte aleatorio
	// enmascarado mapea uniforme).
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	// Alfabeto de IDs de entidades, estilo nanoid.
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz-"

	verificationCodeLength = 6
	entityIDLength         = 16
	sessionTokenBytes      = 20
)

var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateSessionToken devuelve el token crudo que viaja en la cookie:
// 20 bytes de una fuente criptográfica, base32 minúscula sin padding.
// El token nunca se persiste.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32Lower.EncodeToString(buf), nil
}

// SessionIDFromToken deriva el identificador almacenado: hex minúscula de
// SHA-256 del token crudo. Un compromiso de la tabla de sesiones no revela
// tokens utilizables.
func SessionIDFromToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateVerificationCode devuelve un código de 6 caracteres del alfabeto
// mayúsculas+minúsculas+dígitos+`_-`.
func GenerateVerificationCode() (string, error) {
	return randomString(codeAlphabet, verificationCodeLength)
}

// NewEntityID genera claves primarias cortas de 16 caracteres. Sin reintento
// por colisión: aceptable para este tamaño de espacio de IDs.
func NewEntityID() (string, error) {
	return randomString(idAlphabet, entityIDLength)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
