/*
Copyright © 2026 masteryyh <yyh991013@163.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/masteryyh/vidtube/pkg/config"
	"github.com/masteryyh/vidtube/pkg/customerrors"
)

const issuer = "vidtube"

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

type Claims struct {
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Kind     tokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Subject identifies the user a token was issued to.
type Subject struct {
	ID       uuid.UUID
	Username string
	Email    string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// RefreshHash is what gets persisted, the raw refresh token never is.
	RefreshHash string
}

// TokenIssuer signs access and refresh tokens with separate HS256 secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(cfg *config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

var (
	tokenIssuer     *TokenIssuer
	tokenIssuerOnce sync.Once
)

func GetTokenIssuer() *TokenIssuer {
	tokenIssuerOnce.Do(func() {
		tokenIssuer = NewTokenIssuer(config.GetConfigManager().GetConfig().Auth)
	})
	return tokenIssuer
}

func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *TokenIssuer) Issue(subject Subject) (*TokenPair, error) {
	access, err := i.sign(subject, kindAccess, i.accessTTL, i.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := i.sign(Subject{ID: subject.ID}, kindRefresh, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshHash:  HashToken(refresh),
	}, nil
}

func (i *TokenIssuer) sign(subject Subject, kind tokenKind, ttl time.Duration, secret []byte) (string, error) {
	now := i.now()
	claims := Claims{
		Username: subject.Username,
		Email:    subject.Email,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// VerifyAccess returns the user id of a valid access token.
func (i *TokenIssuer) VerifyAccess(token string) (uuid.UUID, error) {
	return i.verify(token, kindAccess, i.accessSecret)
}

// VerifyRefresh only checks the signature and expiry. Callers must also compare
// HashToken(token) with the stored hash.
func (i *TokenIssuer) VerifyRefresh(token string) (uuid.UUID, error) {
	return i.verify(token, kindRefresh, i.refreshSecret)
}

func (i *TokenIssuer) verify(raw string, kind tokenKind, secret []byte) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, customerrors.ErrUnauthorized
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, customerrors.ErrInvalidToken
		}
		return uuid.Nil, fmt.Errorf("%w: %w", customerrors.ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return uuid.Nil, customerrors.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, customerrors.ErrInvalidToken
	}
	return id, nil
}

// HashToken is the form in which refresh tokens are persisted.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// MatchesHash compares a presented token with a stored hash in constant time.
// A nil stored hash never matches.
func MatchesHash(token string, stored *string) bool {
	if stored == nil || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(*stored)) == 1
}
