package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "test-secret-that-is-long-enough-for-hs256",
		TTL:    24 * time.Hour,
		Issuer: "clinicflow",
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())
	claims := &domain.Claims{UserID: uuid.New(), Email: "a@b.c", Role: domain.RoleDoctor}

	tok, err := m.Issue(claims)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.TokenType != "Bearer" {
		t.Errorf("token type = %q", tok.TokenType)
	}
	if d := time.Until(tok.ExpiresAt); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("unexpected lifetime %v", d)
	}

	got, err := m.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if *got != *claims {
		t.Errorf("claims = %+v, want %+v", got, claims)
	}
}

func TestJWTManager_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute
	m := NewJWTManager(cfg)

	tok, err := m.Issue(&domain.Claims{UserID: uuid.New(), Role: domain.RolePatient})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Validate(tok.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTManager_Invalid(t *testing.T) {
	m := NewJWTManager(testConfig())
	tok, _ := m.Issue(&domain.Claims{UserID: uuid.New(), Role: domain.RoleAdmin})

	other := testConfig()
	other.Secret = "a-completely-different-signing-secret"
	otherIssuer := testConfig()
	otherIssuer.Issuer = "someone-else"

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": uuid.NewString(), "role": "admin", "iss": "clinicflow",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		m     *JWTManager
		token string
	}{
		{"garbage", m, "not-a-token"},
		{"wrong secret", NewJWTManager(other), tok.AccessToken},
		{"wrong issuer", NewJWTManager(otherIssuer), tok.AccessToken},
		{"alg none", m, unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.m.Validate(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("matching password rejected")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("wrong password accepted")
	}
}

func TestTOTP(t *testing.T) {
	key, err := GenerateTOTP("clinicflow", "a@b.c")
	if err != nil {
		t.Fatalf("GenerateTOTP: %v", err)
	}
	if key.Secret == "" || key.URL == "" {
		t.Fatalf("incomplete key %+v", key)
	}
	if ValidateTOTP("000000", "") || ValidateTOTP("", key.Secret) {
		t.Error("empty inputs must not validate")
	}

	code, err := totp.GenerateCode(key.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if !ValidateTOTP(code, key.Secret) {
		t.Error("current code rejected")
	}
}
