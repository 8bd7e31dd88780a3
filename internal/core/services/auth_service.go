package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

const DefaultTokenTTL = 15 * time.Minute

type AuthService struct {
	jwtSecret []byte
	now       func() time.Time
}

func NewAuthService(secret string) *AuthService {
	if secret == "" {
		slog.Warn("JWT_SECRET not set")
	}
	return &AuthService{
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
}

func (s *AuthService) IssueToken(identity uuid.UUID, ttl time.Duration) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   identity.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) Verify(token string) (uuid.UUID, error) {
	if len(s.jwtSecret) == 0 {
		return uuid.Nil, ErrEmptySecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity, err := uuid.Parse(claims.Subject)
	if err != nil || identity == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return identity, nil
}
