package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "todolist"

// Codec はセッションIDをCookie値として署名・検証する。
// 有効期限はストア側で管理するため、トークン自体にはexpを含めない。
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec はHS256で署名するCodecを生成する。
func NewCodec(secret string, now func() time.Time) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: []byte(secret), now: now}, nil
}

// Encode はセッションIDを署名済みトークンに変換する。
func (c *Codec) Encode(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:   tokenIssuer,
		ID:       sessionID,
		IssuedAt: jwt.NewNumericDate(c.now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Decode はトークンを検証しセッションIDを取り出す。
// 署名不正・形式不正・issuer不一致はすべてErrInvalidSessionを返す。
func (c *Codec) Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidSession
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", ErrInvalidSession
	}
	if claims.ID == "" {
		return "", ErrInvalidSession
	}
	return claims.ID, nil
}
