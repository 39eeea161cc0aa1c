package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var (
	ErrMissingSecret = errors.New("JWT secret key is not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// TokenService issues and verifies the access tokens handed to API clients.
type TokenService struct {
	cfg    config.JWTConfig
	secret []byte
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &TokenService{cfg: cfg, secret: []byte(cfg.SecretKey), now: time.Now}, nil
}

func (s *TokenService) IssueToken(sessionID string, identity types.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		SessionID: sessionID,
		Email:     identity.Email,
		Name:      identity.Name,
		Picture:   identity.PictureURL,
		Provider:  identity.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.UserID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if s.cfg.Audience != "" && !api.VerifyAudience(claims.Audience, s.cfg.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session", ErrInvalidToken)
	}
	return claims, nil
}

// Identity rebuilds the identity carried by the token.
func (c *Claims) Identity() types.Identity {
	id := types.Identity{
		UserID:     c.Subject,
		Email:      c.Email,
		Name:       c.Name,
		PictureURL: c.Picture,
		Provider:   c.Provider,
	}
	if c.IssuedAt != nil {
		id.SignedInAt = c.IssuedAt.Time
	}
	return id
}
