package security

import (
	"testing"
	"time"

	"github.com/tastebase/tastebase/internal/models"
)

func TestGenerateAndParseUserToken(t *testing.T) {
	user := &models.User{ID: 42, Username: "cook", IsAdmin: true}

	token, err := GenerateUserToken("secret", user, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseUserToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || !claims.IsAdmin || claims.Subject != "cook" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseUserTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateUserToken("secret", &models.User{ID: 1, Username: "cook"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, errParse := ParseUserToken("other-secret", token); errParse == nil {
		t.Fatal("expected wrong secret to fail")
	}
}

func TestParseUserTokenRejectsExpired(t *testing.T) {
	token, err := GenerateUserToken("secret", &models.User{ID: 1, Username: "cook"}, time.Millisecond)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, errParse := ParseUserToken("secret", token); errParse == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestGenerateUserTokenValidation(t *testing.T) {
	if _, err := GenerateUserToken("", &models.User{ID: 1}, time.Hour); err == nil {
		t.Fatal("expected empty secret to fail")
	}
	if _, err := GenerateUserToken("secret", nil, time.Hour); err == nil {
		t.Fatal("expected nil user to fail")
	}
	if _, err := GenerateUserToken("secret", &models.User{ID: 1}, 0); err == nil {
		t.Fatal("expected zero expiry to fail")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected mismatched password to fail")
	}
}
