package service

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vidtube/backend/internal/model"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	TokenType string `json:"typ"`
	Username  string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access and refresh tokens. It holds no state
// beyond its keys and TTLs.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required", ErrMisconfigured)
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrMisconfigured)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token TTLs must be positive", ErrMisconfigured)
	}
	if accessTTL >= refreshTTL {
		return nil, fmt.Errorf("%w: ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL", ErrMisconfigured)
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair signs a fresh access/refresh pair for user.
func (i *TokenIssuer) IssuePair(user *model.User) (model.TokenPair, error) {
	now := i.now()
	access, accessExp, err := i.sign(user, tokenTypeAccess, i.accessSecret, now, i.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(user, tokenTypeRefresh, i.refreshSecret, now, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) sign(user *model.User, typ string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := tokenClaims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if typ == tokenTypeAccess {
		claims.Username = user.Username
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAccess verifies an access token and returns its claims.
func (i *TokenIssuer) ParseAccess(token string) (*model.AuthUser, error) {
	claims, err := i.parse(token, tokenTypeAccess, i.accessSecret)
	if err != nil {
		return nil, err
	}
	return &model.AuthUser{ID: claims.Subject, Username: claims.Username}, nil
}

// ParseRefresh verifies a refresh token and returns its subject.
func (i *TokenIssuer) ParseRefresh(token string) (string, error) {
	claims, err := i.parse(token, tokenTypeRefresh, i.refreshSecret)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *TokenIssuer) parse(tokenStr, typ string, secret []byte) (*tokenClaims, error) {
	if tokenStr == "" || len(tokenStr) > 4096 {
		return nil, ErrUnauthenticated
	}
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrUnauthenticated)
		}
		return nil, ErrUnauthenticated
	}
	if claims.TokenType != typ || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// hashRefreshToken is what the store keeps instead of the token itself.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
