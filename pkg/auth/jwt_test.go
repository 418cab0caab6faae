package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:          "unit-test-secret-key-with-enough-entropy",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinicore-test",
	}
}

func sampleClaims() *domain.Claims {
	patientID := uuid.New()
	return &domain.Claims{
		UserID:    uuid.New(),
		Email:     "ana.reyes@example.com",
		Role:      domain.RolePatient,
		PatientID: &patientID,
	}
}

func TestTokenPair_RoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())
	claims := sampleClaims()

	pair, err := m.GenerateTokenPair(claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q", pair.TokenType)
	}
	if !pair.ExpiresAt.After(time.Now()) {
		t.Error("access token already expired")
	}

	parsed, err := m.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validating access token: %v", err)
	}
	if parsed.UserID != claims.UserID {
		t.Errorf("user id = %s, want %s", parsed.UserID, claims.UserID)
	}
	if parsed.Role != domain.RolePatient || parsed.Email != claims.Email {
		t.Errorf("claims not preserved: %+v", parsed)
	}
	if parsed.PatientID == nil || *parsed.PatientID != *claims.PatientID {
		t.Error("patient link not preserved")
	}
	if parsed.DoctorID != nil {
		t.Error("doctor link invented")
	}
}

func TestValidate_TokenTypeMismatch(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(sampleClaims())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := m.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Errorf("refresh as access: got %v, want ErrTokenTypeMismatch", err)
	}
	if _, err := m.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Errorf("access as refresh: got %v, want ErrTokenTypeMismatch", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	m := NewJWTManager(cfg)

	pair, err := m.GenerateTokenPair(sampleClaims())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(sampleClaims())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testConfig()
	other.Secret = "a-completely-different-signing-secret"
	if _, err := NewJWTManager(other).ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestValidate_WrongIssuer(t *testing.T) {
	m := NewJWTManager(testConfig())
	pair, err := m.GenerateTokenPair(sampleClaims())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testConfig()
	other.Issuer = "someone-else"
	if _, err := NewJWTManager(other).ValidateAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	m := NewJWTManager(testConfig())
	if _, err := m.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("got %v, want ErrTokenInvalid", err)
	}
}
