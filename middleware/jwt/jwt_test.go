package jwt

import (
	"testing"
	"time"
)

func TestNewTokenManager(t *testing.T) {
	secret := "test-secret"
	expireHours := 24
	refreshHours := 168

	tm := NewTokenManager(secret, expireHours, refreshHours)
	if tm == nil {
		t.Fatal("NewTokenManager returned nil")
	}
	if string(tm.secret) != secret {
		t.Errorf("Expected secret %s, got %s", secret, string(tm.secret))
	}

	expectedExpireDur := time.Duration(expireHours) * time.Hour
	if tm.expireDur != expectedExpireDur {
		t.Errorf("Expected expireDur %v, got %v", expectedExpireDur, tm.expireDur)
	}

	expectedRefreshDur := time.Duration(refreshHours) * time.Hour
	if tm.refreshDur != expectedRefreshDur {
		t.Errorf("Expected refreshDur %v, got %v", expectedRefreshDur, tm.refreshDur)
	}
}

func TestGenerateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)
	userID := uint(42)
	nickname := "testuser"
	email := "test@example.com"

	token, err := tm.GenerateToken(userID, nickname, email)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Error("Generated token is empty")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("Expected UserID %d, got %d", userID, claims.UserID)
	}
	if claims.Nickname != nickname {
		t.Errorf("Expected Nickname %s, got %s", nickname, claims.Nickname)
	}
	if claims.Email != email {
		t.Errorf("Expected Email %s, got %s", email, claims.Email)
	}
}

func TestParseToken_ValidToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)

	token, err := tm.GenerateToken(7, "someone", "someone@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	now := time.Now()
	if claims.IssuedAt.Time.After(now) {
		t.Error("IssuedAt is in the future")
	}
	if claims.ExpiresAt.Time.Before(now) {
		t.Error("ExpiresAt is in the past")
	}
	if claims.NotBefore.Time.After(now) {
		t.Error("NotBefore is in the future")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)
	other := NewTokenManager("other-secret", 24, 168)

	token, err := tm.GenerateToken(7, "someone", "someone@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := other.ParseToken(token); err == nil {
		t.Error("expected error parsing token with wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", 24, 168)
	tm.expireDur = -time.Hour // force an already-expired token

	token, err := tm.GenerateToken(7, "someone", "someone@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	_, err = tm.ParseToken(token)
	if err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestRefreshToken_NotYetEligible(t *testing.T) {
	// expire in 24h, refresh window only 1h: refreshing now must fail
	tm := NewTokenManager("test-secret", 24, 1)

	token, err := tm.GenerateToken(7, "someone", "someone@example.com")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := tm.RefreshToken(token); err == nil {
		t.Error("expected refresh to be rejected outside the refresh window")
	}
}
