// Package jwtmw issues and verifies the signed session tokens (access and
// refresh) and provides the gin middleware that guards authenticated routes.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two token flavors carried in the "kind" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken is returned when a token fails signature, expiry or kind
// verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims は署名付きトークンに含まれるクレームです。
// アクセストークンはユーザーの表示用フィールドも運び、
// リフレッシュトークンはユーザーID（sub）のみを運びます。
type Claims struct {
	jwt.RegisteredClaims
	Kind     Kind   `json:"kind"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// Issuer signs and verifies session tokens. Access and refresh tokens use
// separate secrets so a leaked access secret cannot mint refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewIssuer はIssuerの新しいインスタンスを生成します。
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccessToken は短命のアクセストークンを発行します。
// クレーム: sub, email, username, fullName, kind=access。
// ストアへの問い合わせなしに署名だけで検証できます。
func (i *Issuer) IssueAccessToken(userID, email, username, fullName string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		Kind:     KindAccess,
		Email:    email,
		Username: username,
		FullName: fullName,
	}
	return i.sign(claims, i.accessSecret)
}

// IssueRefreshToken は長命のリフレッシュトークンを発行します。
// クレームはユーザーID（sub）とkind=refreshのみです。
func (i *Issuer) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
		Kind: KindRefresh,
	}
	return i.sign(claims, i.refreshSecret)
}

func (i *Issuer) sign(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry against the secret for the expected
// kind and returns the decoded claims. A valid token of the wrong kind is
// rejected. Revocation is not checked here; the refresh flow cross-checks
// the stored value separately.
func (i *Issuer) Verify(tokenStr string, expected Kind) (*Claims, error) {
	secret := i.accessSecret
	if expected == KindRefresh {
		secret = i.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外の署名アルゴリズムは拒否
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != expected {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken はリフレッシュトークンを検証し、ユーザーIDを返します。
func (i *Issuer) VerifyRefreshToken(tokenStr string) (string, error) {
	claims, err := i.Verify(tokenStr, KindRefresh)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
