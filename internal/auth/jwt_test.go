package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerify(t *testing.T) {
	tokens := NewTokenManager("test-secret")

	signed, err := tokens.Generate(42, "alice@example.com")
	if err != nil {
		t.Fatal(err)
	}

	token, err := tokens.Verify(signed)
	if err != nil {
		t.Fatal(err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	if claims["email"] != "alice@example.com" {
		t.Fatalf("email claim = %v", claims["email"])
	}
	if uint(claims["user_id"].(float64)) != 42 {
		t.Fatalf("user_id claim = %v", claims["user_id"])
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenManager("secret-a").Generate(1, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewTokenManager("secret-b").Verify(signed); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := NewTokenManager("secret").Verify("not.a.token"); err == nil {
		t.Fatal("expected verification failure for malformed token")
	}
}
