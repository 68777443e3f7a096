package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("アクセストークンが不正です")

// Claims はアクセストークンのクレーム。Subject にユーザーIDを入れる
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// AccessToken は署名済みトークンと有効期限
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer は HS256 のアクセストークンを発行・検証する
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue はユーザーのアクセストークンを発行する
func (i *TokenIssuer) Issue(userID string, admin bool) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// Parse はトークンを検証してクレームを返す
func (i *TokenIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
