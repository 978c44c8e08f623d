package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenPairRoundTrip(t *testing.T) {
	tm := NewTokenManager("hatsusound", "access-secret", "refresh-secret", time.Minute, time.Hour)
	pair, err := tm.GeneratePair("user-1", "admin")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := tm.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
	if _, err := tm.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("parse refresh: %v", err)
	}

	if _, err := tm.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := tm.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("access token accepted as refresh token")
	}

	other := NewTokenManager("someone-else", "access-secret", "refresh-secret", time.Minute, time.Hour)
	if _, err := other.ParseAccess(pair.AccessToken); err == nil {
		t.Fatal("token from another issuer accepted")
	}
}

func TestExpiredAccessToken(t *testing.T) {
	tm := NewTokenManager("hatsusound", "a", "r", -time.Minute, time.Hour)
	pair, err := tm.GeneratePair("u", "user")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.ParseAccess(pair.AccessToken); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if err := VerifyPassword("correct horse", hash); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyPassword("wrong horse", hash); err == nil {
		t.Fatal("wrong password verified")
	}
}
