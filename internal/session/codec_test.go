package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewCodec_RequiresSecret(t *testing.T) {
	if _, err := NewCodec("  ", nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec("secret", nil)
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}

	token, err := c.Encode("abc123")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(token, "secret") {
		t.Error("token must not contain the secret")
	}

	id, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if id != "abc123" {
		t.Errorf("id = %q, want %q", id, "abc123")
	}
}

func TestCodec_RejectsTamperedToken(t *testing.T) {
	c, _ := NewCodec("secret", nil)
	token, err := c.Encode("abc123")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Decode error = %v, want ErrInvalidSession", err)
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	c, _ := NewCodec("secret", nil)

	claims := jwt.RegisteredClaims{Issuer: tokenIssuer, ID: "abc123", IssuedAt: jwt.NewNumericDate(time.Now())}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString returned error: %v", err)
	}

	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Decode error = %v, want ErrInvalidSession", err)
	}
}

func TestCodec_RejectsWrongIssuer(t *testing.T) {
	c, _ := NewCodec("secret", nil)

	claims := jwt.RegisteredClaims{Issuer: "someone-else", ID: "abc123"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString returned error: %v", err)
	}

	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Decode error = %v, want ErrInvalidSession", err)
	}
}

func TestCodec_RejectsMissingID(t *testing.T) {
	c, _ := NewCodec("secret", nil)

	claims := jwt.RegisteredClaims{Issuer: tokenIssuer}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString returned error: %v", err)
	}

	if _, err := c.Decode(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Decode error = %v, want ErrInvalidSession", err)
	}
}
