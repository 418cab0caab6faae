package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/pkg/auth"
)

// ── Mock user repository ──────────────────────────────────────────────

type loginAttempt struct {
	userID  uuid.UUID
	success bool
}

type mockUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*domain.User
	attempts []loginAttempt
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepo) put(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) error {
	m.put(u)
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (m *mockUserRepo) UpdateLoginAttempt(_ context.Context, id uuid.UUID, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, loginAttempt{userID: id, success: success})
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrInvalidCredentials
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = time.Now()
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "unit-test-secret-key-with-enough-entropy",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinicore-test",
	})
}

const testPassword = "correct-horse-battery"

func testUser(t *testing.T) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	return &domain.User{
		ID:           uuid.New(),
		Email:        "nurse@clinic.example",
		PasswordHash: string(hash),
		FirstName:    "Sam",
		LastName:     "Okafor",
		Role:         domain.RoleNurse,
		IsActive:     true,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	return NewAuthService(users, testJWTManager(), zap.NewNop()), users
}

// ── Tests ─────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	pair, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("token pair incomplete")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q", pair.TokenType)
	}
	if len(users.attempts) != 1 || !users.attempts[0].success {
		t.Error("successful attempt not recorded")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	_, err := svc.Login(context.Background(), u.Email, "not-the-password", "10.0.0.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if len(users.attempts) != 1 || users.attempts[0].success {
		t.Error("failed attempt not recorded")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	if _, err := svc.Login(context.Background(), "ghost@clinic.example", testPassword, "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_LockedAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	lockedUntil := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &lockedUntil
	users.put(u)

	if _, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1"); !errors.Is(err, ErrAccountLocked) {
		t.Errorf("got %v, want ErrAccountLocked", err)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	u.IsActive = false
	users.put(u)

	if _, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1"); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("got %v, want ErrAccountInactive", err)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	pair, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshed, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("no access token issued")
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	pair, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("access token accepted for refresh: %v", err)
	}
}

func TestRefreshToken_DeactivatedUser(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	pair, err := svc.Login(context.Background(), u.Email, testPassword, "10.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	u.IsActive = false
	if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("refresh for deactivated user: got %v", err)
	}
}

func TestChangePassword_Success(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)
	oldHash := u.PasswordHash

	if err := svc.ChangePassword(context.Background(), u.ID, testPassword, "a-much-longer-secret-phrase"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == oldHash {
		t.Error("password hash unchanged")
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	if err := svc.ChangePassword(context.Background(), u.ID, "wrong", "a-much-longer-secret-phrase"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePassword_WeakPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	u := testUser(t)
	users.put(u)

	var vErr *ValidationError
	if err := svc.ChangePassword(context.Background(), u.ID, testPassword, "short"); !errors.As(err, &vErr) {
		t.Errorf("got %v, want ValidationError", err)
	}
}
