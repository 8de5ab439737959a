package http

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"goodsncart-auth/internal/domain"
	"goodsncart-auth/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]domain.User), byEmail: make(map[string]string)}
}

func (f *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user.ID
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetPublicByID(ctx context.Context, id string) (domain.User, error) {
	user, err := f.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return f.byID[id], nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	f.byID[id] = user
	return nil
}

func (f *fakeUserRepo) SetEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerified = true
	f.byID[id] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.byID[id]; ok {
		delete(f.byEmail, user.Email)
	}
	delete(f.byID, id)
	return nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	byID map[string]domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: make(map[string]domain.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[session.ID] = session
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.byID[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (f *fakeSessionRepo) UpdateExpiry(_ context.Context, id string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.ExpiresAt = expiresAt
	f.byID[id] = session
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, session := range f.byID {
		if session.UserID == userID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeCodeRepo struct {
	mu      sync.Mutex
	byEmail map[string]domain.VerificationCode
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{byEmail: make(map[string]domain.VerificationCode)}
}

func (f *fakeCodeRepo) Upsert(_ context.Context, code domain.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEmail[code.Email]; ok {
		existing.Code = code.Code
		existing.ExpiresAt = code.ExpiresAt
		f.byEmail[code.Email] = existing
		return nil
	}
	f.byEmail[code.Email] = code
	return nil
}

func (f *fakeCodeRepo) GetByEmail(_ context.Context, email string) (domain.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.byEmail[email]
	if !ok {
		return domain.VerificationCode{}, pgx.ErrNoRows
	}
	return code, nil
}

func (f *fakeCodeRepo) GetByEmailAndCode(_ context.Context, email, code string) (domain.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.byEmail[email]
	if !ok || row.Code != code {
		return domain.VerificationCode{}, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeCodeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, row := range f.byEmail {
		if row.ID == id {
			delete(f.byEmail, email)
		}
	}
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	lastCode string
}

func (f *fakeSender) SendVerificationCode(_ context.Context, _ string, code string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCode = code
	return nil
}

func (f *fakeSender) sentCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode
}

// testStack arma el router completo sobre repos en memoria. El handler de
// health recibe un pool nil: los tests no pegan a /healthz.
type testStack struct {
	router   *gin.Engine
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	codes    *fakeCodeRepo
	sender   *fakeSender
}

func newTestStack() *testStack {
	logger := zap.NewNop()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	codes := newFakeCodeRepo()
	sender := &fakeSender{}

	verification := service.NewVerificationService(logger, codes, sender)
	sessionServ := service.NewSessionService(logger, sessions, users)
	authServ := service.NewAuthService(logger, users, verification, sessionServ)
	oauthServ := service.NewGoogleOAuthService(logger, users, nil,
		"client-id", "client-secret", "https://app.example.com/oauth/google/callback")

	authH := NewAuthHandler(logger, authServ, false)
	oauthH := NewOAuthHandler(logger, oauthServ, sessionServ, false)
	healthH := NewHealthHandler(nil)

	return &testStack{
		router:   NewRouter(logger, authH, oauthH, healthH, sessionServ, false),
		users:    users,
		sessions: sessions,
		codes:    codes,
		sender:   sender,
	}
}
