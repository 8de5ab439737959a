package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/repository"
)

const (
	googleProvider    = "google"
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// ErrInvalidAuthorizationCode señala un intercambio de código rechazado por
// el proveedor; la frontera HTTP lo traduce a 400.
var ErrInvalidAuthorizationCode = errors.New("invalid authorization code")

// GoogleUser es el registro de identidad externa normalizado.
type GoogleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	Locale        string `json:"locale"`
}

// OAuthService implementa el intercambio authorization-code + PKCE contra
// Google y la resolución de cuenta local.
type OAuthService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	accounts repository.OAuthAccountRepository

	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string

	authURL     string
	tokenURL    string
	userinfoURL string
	now         func() time.Time
}

func NewGoogleOAuthService(logger *zap.Logger, users repository.UserRepository, accounts repository.OAuthAccountRepository, clientID, clientSecret, redirectURI string) *OAuthService {
	return &OAuthService{
		logger:       logger,
		users:        users,
		accounts:     accounts,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		userinfoURL:  googleUserinfoURL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GenerateState produce el valor anti-CSRF del handshake.
func GenerateState() (string, error) {
	return randomURLSafe(32)
}

// GenerateCodeVerifier produce el verificador PKCE (43 caracteres url-safe).
func GenerateCodeVerifier() (string, error) {
	return randomURLSafe(32)
}

// ComputeS256Challenge deriva el code_challenge S256 de un verificador.
func ComputeS256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomURLSafe(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthorizationURL arma la URL de autorización de Google con scopes
// profile+email (más openid para recibir id_token) y el challenge PKCE.
func (s *OAuthService) AuthorizationURL(state, codeVerifier string) (string, error) {
	u, err := url.Parse(s.authURL)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", s.clientID)
	query.Set("redirect_uri", s.redirectURI)
	query.Set("scope", "openid profile email")
	query.Set("state", state)
	query.Set("code_challenge", ComputeS256Challenge(codeVerifier))
	query.Set("code_challenge_method", "S256")
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Exchange canjea code+verifier por tokens y obtiene la identidad externa
// normalizada desde el endpoint de userinfo. El sub del id_token se
// contrasta con el de userinfo.
func (s *OAuthService) Exchange(ctx context.Context, code, codeVerifier string) (GoogleUser, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.redirectURI)
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return GoogleUser{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return GoogleUser{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GoogleUser{}, ErrInvalidAuthorizationCode
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return GoogleUser{}, err
	}
	if payload.AccessToken == "" {
		return GoogleUser{}, ErrInvalidAuthorizationCode
	}

	idTokenSub := s.decodeIDTokenSub(payload.IDToken)

	user, err := s.fetchUserinfo(ctx, payload.AccessToken)
	if err != nil {
		return GoogleUser{}, err
	}
	if user.Sub == "" {
		return GoogleUser{}, fmt.Errorf("userinfo response missing subject")
	}
	if idTokenSub != "" && idTokenSub != user.Sub {
		return GoogleUser{}, fmt.Errorf("id_token subject mismatch")
	}
	return user, nil
}

// decodeIDTokenSub extrae el sub del id_token sin verificar firma: el token
// llegó por el intercambio directo TLS con el proveedor y solo se usa como
// contraste del userinfo.
func (s *OAuthService) decodeIDTokenSub(idToken string) string {
	if idToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		if s.logger != nil {
			s.logger.Warn("id_token decode failed", zap.Error(err))
		}
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func (s *OAuthService) fetchUserinfo(ctx context.Context, accessToken string) (GoogleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return GoogleUser{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return GoogleUser{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GoogleUser{}, fmt.Errorf("userinfo fetch failed with status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return GoogleUser{}, err
	}
	return user, nil
}

// ResolveUser mapea la identidad externa a un user id local: cuenta OAuth
// existente, o vínculo a un usuario con el mismo email, o usuario nuevo.
// El vínculo es idempotente bajo carreras (inserción con conflicto ignorado).
func (s *OAuthService) ResolveUser(ctx context.Context, gu GoogleUser) (string, error) {
	account, err := s.accounts.GetByProviderUserID(ctx, googleProvider, gu.Sub)
	if err == nil {
		return account.UserID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	emailAddr := normalizeEmail(gu.Email)
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}
		user, err = s.createOAuthUser(ctx, emailAddr, gu)
		if err != nil {
			return "", err
		}
	}

	accountID, err := NewEntityID()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.accounts.Create(ctx, domain.OAuthAccount{
		ID:             accountID,
		UserID:         user.ID,
		Provider:       googleProvider,
		ProviderUserID: gu.Sub,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// createOAuthUser crea la cuenta local para una identidad externa nueva.
// Sin hash de contraseña: la cuenta solo es alcanzable via OAuth hasta un
// reset. email_verified queda en false; solo los signups explícitos lo marcan.
func (s *OAuthService) createOAuthUser(ctx context.Context, emailAddr string, gu GoogleUser) (domain.User, error) {
	id, err := NewEntityID()
	if err != nil {
		return domain.User{}, err
	}
	now := s.now()
	user := domain.User{
		ID:        id,
		Email:     emailAddr,
		Username:  gu.Name,
		Avatar:    gu.Picture,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
