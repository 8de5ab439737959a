package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"goodsncart-auth/internal/domain"
)

// Los servicios despachan lecturas en paralelo, por eso los mocks llevan
// mutex.

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createErr    error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetPublicByID(ctx context.Context, id string) (domain.User, error) {
	user, err := m.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) SetEmailVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerified = true
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if ok {
		delete(m.usersByEmail, user.Email)
	}
	delete(m.usersByID, id)
	return nil
}

type mockSessionRepo struct {
	mu           sync.Mutex
	sessionsByID map[string]domain.Session
	createErr    error
	updateErr    error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessionsByID: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.sessionsByID[session.ID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessionsByID[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (m *mockSessionRepo) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	session, ok := m.sessionsByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.ExpiresAt = expiresAt
	m.sessionsByID[id] = session
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessionsByID, id)
	return nil
}

func (m *mockSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessionsByID {
		if session.UserID == userID {
			delete(m.sessionsByID, id)
		}
	}
	return nil
}

func (m *mockSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessionsByID)
}

type mockCodeRepo struct {
	mu           sync.Mutex
	codesByEmail map[string]domain.VerificationCode
	upsertErr    error
	deleteErr    error
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codesByEmail: make(map[string]domain.VerificationCode)}
}

func (m *mockCodeRepo) Upsert(_ context.Context, code domain.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if existing, ok := m.codesByEmail[code.Email]; ok {
		// Sobreescritura in place: conserva el id de la fila.
		existing.Code = code.Code
		existing.ExpiresAt = code.ExpiresAt
		m.codesByEmail[code.Email] = existing
		return nil
	}
	m.codesByEmail[code.Email] = code
	return nil
}

func (m *mockCodeRepo) GetByEmail(_ context.Context, email string) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codesByEmail[email]
	if !ok {
		return domain.VerificationCode{}, pgx.ErrNoRows
	}
	return code, nil
}

func (m *mockCodeRepo) GetByEmailAndCode(_ context.Context, email, code string) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.codesByEmail[email]
	if !ok || row.Code != code {
		return domain.VerificationCode{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *mockCodeRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for email, row := range m.codesByEmail {
		if row.ID == id {
			delete(m.codesByEmail, email)
		}
	}
	return nil
}

func (m *mockCodeRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codesByEmail)
}

type mockOAuthAccountRepo struct {
	mu       sync.Mutex
	accounts []domain.OAuthAccount
}

func (m *mockOAuthAccountRepo) Create(_ context.Context, account domain.OAuthAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Provider == account.Provider && existing.ProviderUserID == account.ProviderUserID {
			// Conflicto ignorado, como el ON CONFLICT DO NOTHING real.
			return nil
		}
	}
	m.accounts = append(m.accounts, account)
	return nil
}

func (m *mockOAuthAccountRepo) GetByProviderUserID(_ context.Context, provider, providerUserID string) (domain.OAuthAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Provider == provider && account.ProviderUserID == providerUserID {
			return account, nil
		}
	}
	return domain.OAuthAccount{}, pgx.ErrNoRows
}

func (m *mockOAuthAccountRepo) GetByUserID(_ context.Context, userID string) (domain.OAuthAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.UserID == userID {
			return account, nil
		}
	}
	return domain.OAuthAccount{}, pgx.ErrNoRows
}

func (m *mockOAuthAccountRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

type mockEmailSender struct {
	mu          sync.Mutex
	lastTo      string
	lastCode    string
	lastExpires time.Time
	sendCount   int
	err         error
}

func (m *mockEmailSender) SendVerificationCode(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTo = toEmail
	m.lastCode = code
	m.lastExpires = expiresAt
	m.sendCount++
	return m.err
}

func (m *mockEmailSender) sentCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCode
}
