package services

import (
	"errors"
	"testing"
	"time"

	"eduscan-api/config"
	"eduscan-api/models"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService() *AuthService {
	return NewAuthService(config.JWTConfig{
		Secret:      "test-secret-key",
		ExpiryHours: 24,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestAuthService()

	hash, err := svc.HashPassword("mypassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("hash should not be empty")
	}
	if hash == "mypassword123" {
		t.Fatal("hash should not equal plaintext")
	}

	if rehash, err := svc.VerifyPassword(hash, "mypassword123"); err != nil || rehash != "" {
		t.Errorf("VerifyPassword(correct) = %q, %v; want no rehash, nil", rehash, err)
	}
	if _, err := svc.VerifyPassword(hash, "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("VerifyPassword(wrong) err = %v, want ErrInvalidCredentials", err)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestAuthService()

	token, err := svc.GenerateToken(1, "teacher1", "teacher")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("UserID = %d, want 1", claims.UserID)
	}
	if claims.Username != "teacher1" {
		t.Errorf("Username = %q, want %q", claims.Username, "teacher1")
	}
	if claims.Role != "teacher" {
		t.Errorf("Role = %q, want %q", claims.Role, "teacher")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.ValidateToken("invalid.token.string")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc1 := NewAuthService(config.JWTConfig{Secret: "secret-1", ExpiryHours: 24})
	svc2 := NewAuthService(config.JWTConfig{Secret: "secret-2", ExpiryHours: 24})

	token, _ := svc1.GenerateToken(1, "teacher1", "teacher")

	_, err := svc2.ValidateToken(token)
	if err == nil {
		t.Error("expected error when validating with wrong secret")
	}
}

func TestTokenContainsClaims(t *testing.T) {
	svc := newTestAuthService()

	token, _ := svc.GenerateToken(42, "parent1", "parent")
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "parent1" {
		t.Errorf("Username = %q", claims.Username)
	}
	if claims.Role != "parent" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Error("ExpiresAt should be set")
	}
	if claims.IssuedAt == nil {
		t.Error("IssuedAt should be set")
	}
	if claims.Subject != "parent1" {
		t.Errorf("Subject = %q", claims.Subject)
	}
}

func TestHashPasswordDifferentEachTime(t *testing.T) {
	svc := newTestAuthService()

	hash1, _ := svc.HashPassword("same-password")
	hash2, _ := svc.HashPassword("same-password")

	if hash1 == hash2 {
		t.Error("bcrypt hashes should differ due to random salt")
	}

	if _, err := svc.VerifyPassword(hash1, "same-password"); err != nil {
		t.Errorf("hash1 should validate: %v", err)
	}
	if _, err := svc.VerifyPassword(hash2, "same-password"); err != nil {
		t.Errorf("hash2 should validate: %v", err)
	}
}

func TestIsHashed(t *testing.T) {
	svc := newTestAuthService()
	hash, _ := svc.HashPassword("teacher123")

	tests := []struct {
		stored string
		want   bool
	}{
		{hash, true},
		{"teacher123", false},
		{"", false},
		{"$2x$not-bcrypt", false},
	}
	for _, tt := range tests {
		if got := IsHashed(tt.stored); got != tt.want {
			t.Errorf("IsHashed(%q) = %v, want %v", tt.stored, got, tt.want)
		}
	}
}

func TestVerifyPasswordUpgradesLegacyPlaintext(t *testing.T) {
	svc := newTestAuthService()

	if _, err := svc.VerifyPassword("teacher123", "teacher12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong plaintext err = %v, want ErrInvalidCredentials", err)
	}

	rehash, err := svc.VerifyPassword("teacher123", "teacher123")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if !IsHashed(rehash) {
		t.Fatalf("rehash = %q, want a bcrypt hash", rehash)
	}
	if again, err := svc.VerifyPassword(rehash, "teacher123"); err != nil || again != "" {
		t.Errorf("upgraded hash = %q, %v; want no further rehash", again, err)
	}
}

func TestVerifyPasswordUpgradesWeakHash(t *testing.T) {
	svc := newTestAuthService()
	weak, err := bcrypt.GenerateFromPassword([]byte("parent123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	rehash, err := svc.VerifyPassword(string(weak), "parent123")
	if err != nil {
		t.Fatalf("VerifyPassword failed: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(rehash)); cost != bcrypt.DefaultCost {
		t.Errorf("rehash cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestIssueToken(t *testing.T) {
	svc := newTestAuthService()
	token, err := svc.IssueToken(&models.User{ID: 7, Username: "parent1", UserType: models.RoleParent})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleParent {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsUnknownRole(t *testing.T) {
	svc := newTestAuthService()
	token, _ := svc.GenerateToken(1, "root", "admin")

	if _, err := svc.ValidateToken(token); !errors.Is(err, errUnknownRole) {
		t.Errorf("err = %v, want errUnknownRole", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestAuthService()
	issued := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, _ := svc.GenerateToken(1, "teacher1", models.RoleTeacher)

	svc.now = func() time.Time { return issued.Add(25 * time.Hour) }
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}
